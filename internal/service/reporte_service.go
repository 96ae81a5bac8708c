package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	cacheKeyResumen  = "reporte:resumen"
	cacheKeyAsesores = "reporte:asesores"
)

// ReporteService aggregates the cartera for the dashboard. Aggregates are
// cached in redis with a short TTL: "atrasado" depends on wall-clock time, so
// a stale stored value is acceptable only within the TTL window.
type ReporteService interface {
	ResumenCartera(ctx context.Context, p policy.Principal) (*dto.ResumenCartera, error)
	ResumenPorAsesor(ctx context.Context, p policy.Principal) (*dto.ReporteAsesoresResponse, error)
}

type reporteService struct {
	prestamos repository.PrestamoRepository
	pagos     repository.PagoRepository
	clientes  repository.ClienteRepository
	usuarios  repository.UsuarioRepository
	rdb       *redis.Client
	ttl       time.Duration
}

func NewReporteService(
	prestamos repository.PrestamoRepository,
	pagos repository.PagoRepository,
	clientes repository.ClienteRepository,
	usuarios repository.UsuarioRepository,
	rdb *redis.Client,
	ttl time.Duration,
) ReporteService {
	return &reporteService{
		prestamos: prestamos,
		pagos:     pagos,
		clientes:  clientes,
		usuarios:  usuarios,
		rdb:       rdb,
		ttl:       ttl,
	}
}

func (s *reporteService) ResumenCartera(ctx context.Context, p policy.Principal) (*dto.ResumenCartera, error) {
	if !policy.CanApproveOrRejectLoan(p) && p.Role != policy.RoleSupervisor {
		return nil, apperrors.Unauthorized("no tiene permisos para ver el reporte de cartera")
	}

	// Cache hit path — admins only; a supervisor's slice depends on who they
	// supervise, so it is always recomputed.
	cacheable := p.Role == policy.RoleAdminSistema || p.Role == policy.RoleAdministrador
	if cacheable && s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKeyResumen).Result(); err == nil {
			var cached dto.ResumenCartera
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	asesorIDs, err := visibleAsesorIDs(ctx, p, s.usuarios)
	if err != nil {
		return nil, err
	}
	visible := asesorSet(asesorIDs)

	prestamos, err := s.prestamos.ListVigentes(ctx)
	if err != nil {
		return nil, apperrors.Store("no se pudo cargar la cartera", err)
	}

	ahora := time.Now()
	resumen := &dto.ResumenCartera{
		TotalPrestado:  decimal.Zero,
		TotalPorCobrar: decimal.Zero,
		TotalCobrado:   decimal.Zero,
	}
	montoVivo := decimal.Zero
	montoAtrasado := decimal.Zero
	clientesVistos := map[uuid.UUID]struct{}{}

	for i := range prestamos {
		pr := &prestamos[i]
		if visible != nil {
			if pr.Cliente == nil {
				continue
			}
			if _, ok := visible[pr.Cliente.AsesorID]; !ok {
				continue
			}
		}

		estado := amortizacion.EstadoDerivado(amortizacion.Parametros{
			Estado:         pr.Estado,
			FrecuenciaPago: pr.FrecuenciaPago,
			TotalCuotas:    pr.TotalCuotas,
			CuotasPagadas:  pr.CuotasPagadas,
			FechaInicio:    pr.FechaInicio,
			AprobadoPor:    pr.AprobadoPor,
		}, ahora)

		clientesVistos[pr.ClienteID] = struct{}{}

		switch estado {
		case amortizacion.EstadoPendiente:
			resumen.Pendientes++
			continue // not yet disbursed: excluded from the money totals
		case amortizacion.EstadoActivo:
			resumen.Activos++
		case amortizacion.EstadoAtrasado:
			resumen.Atrasados++
		case amortizacion.EstadoCompletado:
			resumen.Completados++
		case amortizacion.EstadoRechazado:
			resumen.Rechazados++
			continue
		}

		resumen.TotalPrestado = resumen.TotalPrestado.Add(pr.Monto)

		cuota, err := amortizacion.Cuota(pr.MontoTotal, pr.TotalCuotas)
		if err != nil {
			continue
		}
		cobrado := cuota.Mul(decimal.NewFromInt(int64(pr.CuotasPagadas)))
		if pr.CuotasPagadas >= pr.TotalCuotas {
			cobrado = pr.MontoTotal
		}
		resumen.TotalCobrado = resumen.TotalCobrado.Add(cobrado)
		resumen.TotalPorCobrar = resumen.TotalPorCobrar.Add(pr.MontoTotal.Sub(cobrado))

		if estado == amortizacion.EstadoActivo || estado == amortizacion.EstadoAtrasado {
			montoVivo = montoVivo.Add(pr.MontoTotal)
			if estado == amortizacion.EstadoAtrasado {
				montoAtrasado = montoAtrasado.Add(pr.MontoTotal)
			}
		}
	}

	if !montoVivo.IsZero() {
		resumen.MorosidadPct = montoAtrasado.Div(montoVivo).Mul(decimal.NewFromInt(100)).Round(2)
	}
	resumen.Clientes = len(clientesVistos)

	if cacheable && s.rdb != nil {
		if raw, err := json.Marshal(resumen); err == nil {
			// Best effort: a cache write failure never fails the report.
			_ = s.rdb.Set(ctx, cacheKeyResumen, raw, s.ttl).Err()
		}
	}
	return resumen, nil
}

func (s *reporteService) ResumenPorAsesor(ctx context.Context, p policy.Principal) (*dto.ReporteAsesoresResponse, error) {
	if !policy.CanApproveOrRejectLoan(p) && p.Role != policy.RoleSupervisor {
		return nil, apperrors.Unauthorized("no tiene permisos para ver el reporte por asesor")
	}

	cacheable := p.Role == policy.RoleAdminSistema || p.Role == policy.RoleAdministrador
	if cacheable && s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, cacheKeyAsesores).Result(); err == nil {
			var cached dto.ReporteAsesoresResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	asesorIDs, err := visibleAsesorIDs(ctx, p, s.usuarios)
	if err != nil {
		return nil, err
	}
	visible := asesorSet(asesorIDs)

	usuarios, err := s.usuarios.List(ctx)
	if err != nil {
		return nil, apperrors.Store("no se pudo cargar los asesores", err)
	}

	cobradoPorAsesor, err := s.pagos.SumPorAsesor(ctx)
	if err != nil {
		return nil, apperrors.Store("no se pudo sumar la cobranza", err)
	}
	prestamos, err := s.prestamos.ListVigentes(ctx)
	if err != nil {
		return nil, apperrors.Store("no se pudo cargar la cartera", err)
	}

	ahora := time.Now()
	porAsesor := map[uuid.UUID]*dto.ResumenAsesor{}
	for i := range usuarios {
		u := &usuarios[i]
		if policy.ParseRole(u.Rol) != policy.RoleAsesor {
			continue
		}
		if visible != nil {
			if _, ok := visible[u.ID]; !ok {
				continue
			}
		}
		n, err := s.clientes.CountPorAsesor(ctx, u.ID)
		if err != nil {
			return nil, apperrors.Store("no se pudo contar los clientes", err)
		}
		porAsesor[u.ID] = &dto.ResumenAsesor{
			AsesorID:     u.ID.String(),
			AsesorNombre: u.Nombre,
			Clientes:     int(n),
			TotalCobrado: cobradoPorAsesor[u.ID],
		}
	}

	for i := range prestamos {
		pr := &prestamos[i]
		if pr.Cliente == nil {
			continue
		}
		fila, ok := porAsesor[pr.Cliente.AsesorID]
		if !ok {
			continue
		}
		estado := amortizacion.EstadoDerivado(amortizacion.Parametros{
			Estado:         pr.Estado,
			FrecuenciaPago: pr.FrecuenciaPago,
			TotalCuotas:    pr.TotalCuotas,
			CuotasPagadas:  pr.CuotasPagadas,
			FechaInicio:    pr.FechaInicio,
			AprobadoPor:    pr.AprobadoPor,
		}, ahora)
		switch estado {
		case amortizacion.EstadoActivo:
			fila.PrestamosVivos++
			fila.TotalPrestado = fila.TotalPrestado.Add(pr.Monto)
		case amortizacion.EstadoAtrasado:
			fila.PrestamosVivos++
			fila.Atrasados++
			fila.TotalPrestado = fila.TotalPrestado.Add(pr.Monto)
		case amortizacion.EstadoCompletado:
			fila.TotalPrestado = fila.TotalPrestado.Add(pr.Monto)
		}
	}

	out := &dto.ReporteAsesoresResponse{Data: make([]dto.ResumenAsesor, 0, len(porAsesor))}
	for _, fila := range porAsesor {
		out.Data = append(out.Data, *fila)
	}
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].AsesorNombre < out.Data[j].AsesorNombre })

	if cacheable && s.rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			_ = s.rdb.Set(ctx, cacheKeyAsesores, raw, s.ttl).Err()
		}
	}
	return out, nil
}

func asesorSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	if ids == nil {
		return nil
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
