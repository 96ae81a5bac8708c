package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrestamoService is the loan lifecycle coordinator. Every mutating operation
// consults the access policy before touching storage; failing the policy
// returns Unauthorized with no side effects.
type PrestamoService interface {
	Solicitar(ctx context.Context, p policy.Principal, req dto.SolicitarPrestamoRequest) (*dto.PrestamoResponse, error)
	Aprobar(ctx context.Context, p policy.Principal, id uuid.UUID, comentario *string) (*dto.PrestamoResponse, error)
	Rechazar(ctx context.Context, p policy.Principal, id uuid.UUID, comentario string) (*dto.PrestamoResponse, error)
	RegistrarPago(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.RegistrarPagoRequest) (*dto.RegistrarPagoResponse, error)
	Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error
	Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.PrestamoResponse, error)
	Listar(ctx context.Context, p policy.Principal, filter dto.PrestamoFilter) (*dto.PrestamoListResponse, error)
	Cronograma(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.CronogramaResponse, error)
	ListarPagos(ctx context.Context, p policy.Principal, id uuid.UUID) ([]dto.PagoResponse, error)
}

type prestamoService struct {
	repo     repository.PrestamoRepository
	pagos    repository.PagoRepository
	clientes repository.ClienteRepository
	usuarios repository.UsuarioRepository

	// candados serializes RegistrarPago per prestamo so two concurrent posts
	// cannot both read cuotas_pagadas = N and both write N+1.
	candadosMu sync.Mutex
	candados   map[uuid.UUID]*sync.Mutex
}

func NewPrestamoService(
	repo repository.PrestamoRepository,
	pagos repository.PagoRepository,
	clientes repository.ClienteRepository,
	usuarios repository.UsuarioRepository,
) PrestamoService {
	return &prestamoService{
		repo:     repo,
		pagos:    pagos,
		clientes: clientes,
		usuarios: usuarios,
		candados: make(map[uuid.UUID]*sync.Mutex),
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *prestamoService) candado(id uuid.UUID) *sync.Mutex {
	s.candadosMu.Lock()
	defer s.candadosMu.Unlock()
	mu, ok := s.candados[id]
	if !ok {
		mu = &sync.Mutex{}
		s.candados[id] = mu
	}
	return mu
}

// liberarCandado drops a loan's mutex once it can no longer accept payments.
// Goroutines already parked on the old mutex still serialize among themselves,
// and any later arrival fails the estado guard before touching storage, so a
// fresh mutex for the same id is harmless.
func (s *prestamoService) liberarCandado(id uuid.UUID) {
	s.candadosMu.Lock()
	delete(s.candados, id)
	s.candadosMu.Unlock()
}

// ── Solicitar ────────────────────────────────────────────────────────────────

func (s *prestamoService) Solicitar(ctx context.Context, p policy.Principal, req dto.SolicitarPrestamoRequest) (*dto.PrestamoResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apperrors.Validation("cliente_id invalido")
	}

	// Validate the financials before any read: bad input never reaches storage.
	montoTotal, err := amortizacion.Total(req.Monto, req.Interes)
	if err != nil {
		return nil, err
	}
	if _, err := amortizacion.Cuota(montoTotal, req.TotalCuotas); err != nil {
		return nil, err
	}
	if _, err := amortizacion.Incremento(req.FrecuenciaPago); err != nil {
		return nil, err
	}

	fechaInicio := hoy()
	if req.FechaInicio != "" {
		fechaInicio, err = time.Parse("2006-01-02", req.FechaInicio)
		if err != nil {
			return nil, apperrors.Validation("fecha_inicio invalida")
		}
	}

	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, apperrors.NotFound("cliente no encontrado")
	}
	res := resourceForCliente(ctx, cliente, s.usuarios)
	if !policy.CanWriteLoan(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos sobre la cartera de este cliente")
	}

	prestamo := &model.Prestamo{
		ClienteID:      clienteID,
		Monto:          req.Monto,
		Interes:        req.Interes,
		MontoTotal:     montoTotal,
		FrecuenciaPago: req.FrecuenciaPago,
		TotalCuotas:    req.TotalCuotas,
		CuotasPagadas:  0,
		FechaInicio:    fechaInicio,
		Estado:         amortizacion.EstadoPendiente,
	}
	if err := s.repo.Create(ctx, prestamo); err != nil {
		return nil, apperrors.Store("no se pudo registrar la solicitud", err)
	}
	prestamo.Cliente = cliente
	return prestamoToResponse(prestamo, time.Now()), nil
}

// ── Aprobar / Rechazar ───────────────────────────────────────────────────────

func (s *prestamoService) Aprobar(ctx context.Context, p policy.Principal, id uuid.UUID, comentario *string) (*dto.PrestamoResponse, error) {
	return s.decidir(ctx, p, id, amortizacion.EstadoActivo, comentario)
}

func (s *prestamoService) Rechazar(ctx context.Context, p policy.Principal, id uuid.UUID, comentario string) (*dto.PrestamoResponse, error) {
	if comentario == "" {
		return nil, apperrors.Validation("el comentario es obligatorio al rechazar")
	}
	return s.decidir(ctx, p, id, amortizacion.EstadoRechazado, &comentario)
}

func (s *prestamoService) decidir(ctx context.Context, p policy.Principal, id uuid.UUID, estado string, comentario *string) (*dto.PrestamoResponse, error) {
	if !policy.CanApproveOrRejectLoan(p) {
		return nil, apperrors.Unauthorized("solo un administrador puede aprobar o rechazar prestamos")
	}
	prestamo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("prestamo no encontrado")
	}
	if prestamo.Estado != amortizacion.EstadoPendiente {
		return nil, apperrors.InvalidState("solo un prestamo pendiente puede aprobarse o rechazarse")
	}

	ahora := time.Now()
	aprobador := p.ID
	prestamo.Estado = estado
	prestamo.AprobadoPor = &aprobador
	prestamo.FechaAprobacion = &ahora
	prestamo.ComentarioAprobacion = comentario

	if err := s.repo.Update(ctx, prestamo); err != nil {
		return nil, apperrors.Store("no se pudo actualizar el prestamo", err)
	}
	return prestamoToResponse(prestamo, ahora), nil
}

// ── RegistrarPago ────────────────────────────────────────────────────────────
// Posting sequence:
//  1. Serialize per prestamo (candado) and authorize.
//  2. Guard: estado activo, cuotas pendientes, monto positivo.
//  3. Insert pago + conditional cuotas update in one transaction. Without a
//     real transaction (unit test mode) a failed update compensates by
//     deleting the just-inserted pago; a failed compensation surfaces as a
//     store failure instead of hiding the inconsistency.
//
// Store failures are never retried here: a silent retry could double-post.

func (s *prestamoService) RegistrarPago(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.RegistrarPagoRequest) (*dto.RegistrarPagoResponse, error) {
	if req.Monto.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.Validation("el monto del pago debe ser mayor a cero")
	}

	mu := s.candado(id)
	mu.Lock()
	defer mu.Unlock()

	prestamo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("prestamo no encontrado")
	}

	res := policy.Resource{}
	if prestamo.Cliente != nil {
		res = resourceForCliente(ctx, prestamo.Cliente, s.usuarios)
	}
	if !policy.CanPostPayment(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos para registrar pagos en este prestamo")
	}

	if prestamo.Estado != amortizacion.EstadoActivo {
		return nil, apperrors.InvalidState("solo un prestamo activo acepta pagos")
	}
	if prestamo.CuotasPagadas >= prestamo.TotalCuotas {
		return nil, apperrors.InvalidState("el prestamo no tiene cuotas pendientes")
	}

	ahora := time.Now()
	pago := &model.Pago{
		PrestamoID:    id,
		Monto:         req.Monto.Round(2),
		FechaPago:     ahora,
		Metodo:        req.Metodo,
		Comentario:    req.Comentario,
		RegistradoPor: p.ID,
	}

	cuotasAntes := prestamo.CuotasPagadas
	cuotasDespues := cuotasAntes + 1
	estadoNuevo := amortizacion.EstadoActivo
	if cuotasDespues >= prestamo.TotalCuotas {
		estadoNuevo = amortizacion.EstadoCompletado
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.pagos.CreateTx(ctx, tx, pago); err != nil {
			return apperrors.Store("no se pudo registrar el pago", err)
		}
		if err := s.repo.UpdateCuotasTx(ctx, tx, id, cuotasAntes, cuotasDespues, estadoNuevo); err != nil {
			if s.repo.DB() == nil {
				// Compensating rollback: no transaction is covering us.
				if delErr := s.pagos.Delete(ctx, pago.ID); delErr != nil {
					return apperrors.Store("pago registrado pero el prestamo quedo inconsistente", delErr)
				}
			}
			return apperrors.Store("no se pudo actualizar el prestamo", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	prestamo.CuotasPagadas = cuotasDespues
	prestamo.Estado = estadoNuevo
	if estadoNuevo == amortizacion.EstadoCompletado {
		s.liberarCandado(id)
	}

	return &dto.RegistrarPagoResponse{
		Pago:     pagoToResponse(pago),
		Prestamo: *prestamoToResponse(prestamo, ahora),
	}, nil
}

// ── Eliminar ─────────────────────────────────────────────────────────────────

func (s *prestamoService) Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	prestamo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.NotFound("prestamo no encontrado")
	}
	res := policy.Resource{}
	if prestamo.Cliente != nil {
		res.AsesorID = prestamo.Cliente.AsesorID
	}
	if !policy.CanDeleteLoan(p, res) {
		return apperrors.Unauthorized("solo un administrador puede eliminar prestamos")
	}
	n, err := s.pagos.CountByPrestamo(ctx, id)
	if err != nil {
		return apperrors.Store("no se pudo verificar los pagos del prestamo", err)
	}
	if n > 0 {
		return apperrors.Conflict("el prestamo tiene pagos registrados y no puede eliminarse")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Store("no se pudo eliminar el prestamo", err)
	}
	s.liberarCandado(id)
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *prestamoService) Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.PrestamoResponse, error) {
	prestamo, _, err := s.cargarAutorizado(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return prestamoToResponse(prestamo, time.Now()), nil
}

func (s *prestamoService) Listar(ctx context.Context, p policy.Principal, filter dto.PrestamoFilter) (*dto.PrestamoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	asesorIDs, err := visibleAsesorIDs(ctx, p, s.usuarios)
	if err != nil {
		return nil, err
	}

	prestamos, total, err := s.repo.List(ctx, filter, asesorIDs)
	if err != nil {
		return nil, apperrors.Store("no se pudo listar los prestamos", err)
	}

	ahora := time.Now()
	items := make([]dto.PrestamoResponse, 0, len(prestamos))
	for i := range prestamos {
		resp := prestamoToResponse(&prestamos[i], ahora)
		// The repo cannot distinguish activo from the derived atrasado; finish
		// the estado filter here, after derivation.
		if filter.Estado == amortizacion.EstadoActivo && resp.Estado != amortizacion.EstadoActivo {
			continue
		}
		if filter.Estado == amortizacion.EstadoAtrasado && resp.Estado != amortizacion.EstadoAtrasado {
			continue
		}
		items = append(items, *resp)
	}

	// For the two derived filters the repo returned the whole stored-activo
	// set; total and the page slice are computed here, after derivation, so
	// they always agree with the filtered data.
	if filter.Estado == amortizacion.EstadoActivo || filter.Estado == amortizacion.EstadoAtrasado {
		total = int64(len(items))
		desde := (filter.Page - 1) * filter.Limit
		if desde > len(items) {
			desde = len(items)
		}
		hasta := desde + filter.Limit
		if hasta > len(items) {
			hasta = len(items)
		}
		items = items[desde:hasta]
	}

	return &dto.PrestamoListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *prestamoService) Cronograma(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.CronogramaResponse, error) {
	prestamo, _, err := s.cargarAutorizado(ctx, p, id)
	if err != nil {
		return nil, err
	}
	cuotas, err := amortizacion.CronogramaMontos(
		prestamo.FechaInicio, prestamo.FrecuenciaPago,
		prestamo.TotalCuotas, prestamo.MontoTotal, prestamo.CuotasPagadas,
	)
	if err != nil {
		return nil, err
	}
	return &dto.CronogramaResponse{
		PrestamoID: prestamo.ID.String(),
		MontoTotal: prestamo.MontoTotal,
		Cuotas:     cuotas,
	}, nil
}

func (s *prestamoService) ListarPagos(ctx context.Context, p policy.Principal, id uuid.UUID) ([]dto.PagoResponse, error) {
	if _, _, err := s.cargarAutorizado(ctx, p, id); err != nil {
		return nil, err
	}
	pagos, err := s.pagos.ListByPrestamo(ctx, id)
	if err != nil {
		return nil, apperrors.Store("no se pudo listar los pagos", err)
	}
	items := make([]dto.PagoResponse, 0, len(pagos))
	for i := range pagos {
		items = append(items, pagoToResponse(&pagos[i]))
	}
	return items, nil
}

func (s *prestamoService) cargarAutorizado(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Prestamo, policy.Resource, error) {
	prestamo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, policy.Resource{}, apperrors.NotFound("prestamo no encontrado")
	}
	res := policy.Resource{}
	if prestamo.Cliente != nil {
		res = resourceForCliente(ctx, prestamo.Cliente, s.usuarios)
	}
	if !policy.CanReadLoan(p, res) {
		return nil, policy.Resource{}, apperrors.Unauthorized("no tiene permisos sobre este prestamo")
	}
	return prestamo, res, nil
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func hoy() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func prestamoToResponse(p *model.Prestamo, ahora time.Time) *dto.PrestamoResponse {
	params := amortizacion.Parametros{
		Estado:         p.Estado,
		FrecuenciaPago: p.FrecuenciaPago,
		TotalCuotas:    p.TotalCuotas,
		CuotasPagadas:  p.CuotasPagadas,
		FechaInicio:    p.FechaInicio,
		AprobadoPor:    p.AprobadoPor,
	}
	estado := amortizacion.EstadoDerivado(params, ahora)

	cuota := decimal.Zero
	if c, err := amortizacion.Cuota(p.MontoTotal, p.TotalCuotas); err == nil {
		cuota = c
	}

	resp := &dto.PrestamoResponse{
		ID:             p.ID.String(),
		ClienteID:      p.ClienteID.String(),
		Monto:          p.Monto,
		Interes:        p.Interes,
		MontoTotal:     p.MontoTotal,
		FrecuenciaPago: p.FrecuenciaPago,
		TotalCuotas:    p.TotalCuotas,
		CuotasPagadas:  p.CuotasPagadas,
		MontoCuota:     cuota,
		FechaInicio:    p.FechaInicio.Format("2006-01-02"),
		Estado:         estado,
		CreatedAt:      p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if p.Cliente != nil {
		resp.ClienteNombre = p.Cliente.Nombre
	}
	if estado == amortizacion.EstadoActivo || estado == amortizacion.EstadoAtrasado {
		if venc, err := amortizacion.ProximoVencimiento(p.FechaInicio, p.FrecuenciaPago, p.CuotasPagadas); err == nil {
			resp.ProximoVencimiento = venc.Format("2006-01-02")
		}
		resp.DiasAtraso = amortizacion.DiasAtraso(params, ahora)
	}
	if p.AprobadoPor != nil {
		id := p.AprobadoPor.String()
		resp.AprobadoPor = &id
	}
	if p.FechaAprobacion != nil {
		f := p.FechaAprobacion.Format("2006-01-02T15:04:05Z")
		resp.FechaAprobacion = &f
	}
	resp.ComentarioAprobacion = p.ComentarioAprobacion
	return resp
}

func pagoToResponse(p *model.Pago) dto.PagoResponse {
	return dto.PagoResponse{
		ID:            p.ID.String(),
		PrestamoID:    p.PrestamoID.String(),
		Monto:         p.Monto,
		FechaPago:     p.FechaPago.Format("2006-01-02T15:04:05Z"),
		Metodo:        p.Metodo,
		Comentario:    p.Comentario,
		RegistradoPor: p.RegistradoPor.String(),
	}
}
