package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubPrestamoRepo is an in-memory PrestamoRepository. UpdateCuotasTx keeps the
// same compare-and-set semantics as the SQL version: the update only lands when
// cuotas_pagadas still equals the expected value.
type stubPrestamoRepo struct {
	mu        sync.Mutex
	prestamos map[uuid.UUID]*model.Prestamo
	failCAS   bool // force UpdateCuotasTx to fail, for the compensation path
}

func newStubPrestamoRepo() *stubPrestamoRepo {
	return &stubPrestamoRepo{prestamos: make(map[uuid.UUID]*model.Prestamo)}
}

func (r *stubPrestamoRepo) Create(_ context.Context, p *model.Prestamo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.prestamos[p.ID] = p
	return nil
}

func (r *stubPrestamoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Prestamo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prestamos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPrestamoRepo) List(_ context.Context, _ dto.PrestamoFilter, _ []uuid.UUID) ([]model.Prestamo, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Prestamo, 0, len(r.prestamos))
	for _, p := range r.prestamos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPrestamoRepo) ListVigentes(_ context.Context) ([]model.Prestamo, error) {
	return nil, nil
}

func (r *stubPrestamoRepo) Update(_ context.Context, p *model.Prestamo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prestamos[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.prestamos[p.ID] = &cp
	return nil
}

func (r *stubPrestamoRepo) UpdateCuotasTx(_ context.Context, _ *gorm.DB, id uuid.UUID, cuotasAntes, cuotasDespues int, estado string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCAS {
		return errors.New("update forzado a fallar")
	}
	p, ok := r.prestamos[id]
	if !ok || p.CuotasPagadas != cuotasAntes {
		return gorm.ErrRecordNotFound
	}
	p.CuotasPagadas = cuotasDespues
	p.Estado = estado
	return nil
}

func (r *stubPrestamoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.prestamos, id)
	return nil
}

func (r *stubPrestamoRepo) DB() *gorm.DB { return nil }

var _ repository.PrestamoRepository = (*stubPrestamoRepo)(nil)

type stubPagoRepo struct {
	mu      sync.Mutex
	pagos   map[uuid.UUID]*model.Pago
	deletes int
}

func newStubPagoRepo() *stubPagoRepo {
	return &stubPagoRepo{pagos: make(map[uuid.UUID]*model.Pago)}
}

func (r *stubPagoRepo) CreateTx(_ context.Context, _ *gorm.DB, p *model.Pago) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.pagos[p.ID] = p
	return nil
}

func (r *stubPagoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pagos, id)
	r.deletes++
	return nil
}

func (r *stubPagoRepo) ListByPrestamo(_ context.Context, prestamoID uuid.UUID) ([]model.Pago, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Pago
	for _, p := range r.pagos {
		if p.PrestamoID == prestamoID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPagoRepo) CountByPrestamo(_ context.Context, prestamoID uuid.UUID) (int64, error) {
	pagos, _ := r.ListByPrestamo(context.Background(), prestamoID)
	return int64(len(pagos)), nil
}

func (r *stubPagoRepo) SumTotal(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (r *stubPagoRepo) SumPorAsesor(_ context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	return nil, nil
}

var _ repository.PagoRepository = (*stubPagoRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
	// prestamosVivos is what CountPrestamosVivos reports for every cliente.
	prestamosVivos int64
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClienteRepo) FindByDNI(_ context.Context, dni string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.DNI == dni {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) List(_ context.Context, _ dto.ClienteFilter, _ []uuid.UUID) ([]model.Cliente, int64, error) {
	return nil, 0, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clientes, id)
	return nil
}

func (r *stubClienteRepo) CountPrestamosVivos(_ context.Context, _ uuid.UUID) (int64, error) {
	return r.prestamosVivos, nil
}

func (r *stubClienteRepo) CountPorAsesor(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error)    { return nil, nil }
func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) { return nil, nil }

func (r *stubUsuarioRepo) ListAsesoresPorSupervisor(_ context.Context, supervisorID uuid.UUID) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.SupervisorID != nil && *u.SupervisorID == supervisorID && u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = false
	}
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = true
	}
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type prestamoFixture struct {
	svc        PrestamoService
	prestamos  *stubPrestamoRepo
	pagos      *stubPagoRepo
	clientes   *stubClienteRepo
	usuarios   *stubUsuarioRepo
	admin      policy.Principal
	supervisor policy.Principal
	asesor     policy.Principal
	cliente    *model.Cliente
}

func newPrestamoFixture(t *testing.T) *prestamoFixture {
	t.Helper()
	prestamos := newStubPrestamoRepo()
	pagos := newStubPagoRepo()
	clientes := newStubClienteRepo()
	usuarios := newStubUsuarioRepo()

	supervisorID := uuid.New()
	asesorID := uuid.New()

	require.NoError(t, usuarios.Create(context.Background(), &model.Usuario{
		ID: supervisorID, Username: "sup", Nombre: "Supervisor", Rol: "supervisor", Activo: true,
	}))
	require.NoError(t, usuarios.Create(context.Background(), &model.Usuario{
		ID: asesorID, Username: "ase", Nombre: "Asesor", Rol: "asesor",
		SupervisorID: &supervisorID, Activo: true,
	}))

	cliente := &model.Cliente{
		ID: uuid.New(), DNI: "12345678", Nombre: "Maria Quispe",
		Telefono: "987654321", AsesorID: asesorID,
	}
	require.NoError(t, clientes.Create(context.Background(), cliente))

	return &prestamoFixture{
		svc:        NewPrestamoService(prestamos, pagos, clientes, usuarios),
		prestamos:  prestamos,
		pagos:      pagos,
		clientes:   clientes,
		usuarios:   usuarios,
		admin:      policy.Principal{ID: uuid.New(), Role: policy.RoleAdministrador},
		supervisor: policy.Principal{ID: supervisorID, Role: policy.RoleSupervisor},
		asesor:     policy.Principal{ID: asesorID, Role: policy.RoleAsesor, SupervisorID: &supervisorID},
		cliente:    cliente,
	}
}

func (f *prestamoFixture) solicitarActivo(t *testing.T, monto, interes string, cuotas int, frecuencia string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec(monto),
		Interes:        dec(interes),
		FrecuenciaPago: frecuencia,
		TotalCuotas:    cuotas,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	_, err = f.svc.Aprobar(context.Background(), f.admin, id, nil)
	require.NoError(t, err)
	return id
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ── Solicitar ────────────────────────────────────────────────────────────────

func TestSolicitarCalculaMontoTotal(t *testing.T) {
	f := newPrestamoFixture(t)

	resp, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("1000"),
		Interes:        dec("10"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
	})
	require.NoError(t, err)

	assert.Equal(t, "1100", resp.MontoTotal.String())
	assert.Equal(t, "36.67", resp.MontoCuota.StringFixed(2))
	assert.Equal(t, amortizacion.EstadoPendiente, resp.Estado)
	assert.Equal(t, 0, resp.CuotasPagadas)
}

func TestSolicitarRechazaMontoInvalido(t *testing.T) {
	f := newPrestamoFixture(t)

	_, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("-5"),
		Interes:        dec("10"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	// La validacion corta antes de tocar el almacen.
	assert.Empty(t, f.prestamos.prestamos)
}

func TestSolicitarCarteraAjena(t *testing.T) {
	f := newPrestamoFixture(t)
	intruso := policy.Principal{ID: uuid.New(), Role: policy.RoleAsesor}

	_, err := f.svc.Solicitar(context.Background(), intruso, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("1000"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

// ── Aprobar / Rechazar ───────────────────────────────────────────────────────

func TestAprobarSoloPendiente(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	// Segunda aprobacion sobre un prestamo ya activo.
	_, err := f.svc.Aprobar(context.Background(), f.admin, id, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))

	_, err = f.svc.Rechazar(context.Background(), f.admin, id, "fuera de plazo")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
}

func TestAprobarRequiereAdmin(t *testing.T) {
	f := newPrestamoFixture(t)

	resp, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("1000"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	for _, p := range []policy.Principal{f.asesor, f.supervisor} {
		_, err := f.svc.Aprobar(context.Background(), p, id, nil)
		assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	}
}

func TestRechazarExigeComentario(t *testing.T) {
	f := newPrestamoFixture(t)

	resp, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("500"),
		FrecuenciaPago: amortizacion.FrecuenciaSemanal,
		TotalCuotas:    4,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.Rechazar(context.Background(), f.admin, id, "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	rechazo, err := f.svc.Rechazar(context.Background(), f.admin, id, "historial malo")
	require.NoError(t, err)
	assert.Equal(t, amortizacion.EstadoRechazado, rechazo.Estado)
	require.NotNil(t, rechazo.ComentarioAprobacion)
	assert.Equal(t, "historial malo", *rechazo.ComentarioAprobacion)
}

// ── RegistrarPago ────────────────────────────────────────────────────────────

func TestRegistrarPagoAvanzaCuotas(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	req := dto.RegistrarPagoRequest{Monto: dec("36.67"), Metodo: "efectivo"}

	var resp *dto.RegistrarPagoResponse
	var err error
	for i := 0; i < 15; i++ {
		resp, err = f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
		require.NoError(t, err)
	}
	assert.Equal(t, 15, resp.Prestamo.CuotasPagadas)
	assert.Equal(t, amortizacion.EstadoActivo, resp.Prestamo.Estado)

	for i := 0; i < 15; i++ {
		resp, err = f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
		require.NoError(t, err)
	}
	assert.Equal(t, 30, resp.Prestamo.CuotasPagadas)
	assert.Equal(t, amortizacion.EstadoCompletado, resp.Prestamo.Estado)

	// Cuota 31: el prestamo ya no acepta pagos y nada cambia en el almacen.
	_, err = f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))

	n, err := f.pagos.CountByPrestamo(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 30, n)
}

func TestRegistrarPagoSoloActivo(t *testing.T) {
	f := newPrestamoFixture(t)

	resp, err := f.svc.Solicitar(context.Background(), f.asesor, dto.SolicitarPrestamoRequest{
		ClienteID:      f.cliente.ID.String(),
		Monto:          dec("1000"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.RegistrarPago(context.Background(), f.asesor, id, dto.RegistrarPagoRequest{
		Monto: dec("36.67"), Metodo: "yape",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
}

func TestRegistrarPagoMontoNoPositivo(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	_, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, dto.RegistrarPagoRequest{
		Monto: dec("0"), Metodo: "efectivo",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestRegistrarPagoCarteraAjena(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)
	intruso := policy.Principal{ID: uuid.New(), Role: policy.RoleAsesor}

	_, err := f.svc.RegistrarPago(context.Background(), intruso, id, dto.RegistrarPagoRequest{
		Monto: dec("36.67"), Metodo: "efectivo",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	// El supervisor del asesor si puede cobrar.
	_, err = f.svc.RegistrarPago(context.Background(), f.supervisor, id, dto.RegistrarPagoRequest{
		Monto: dec("36.67"), Metodo: "efectivo",
	})
	assert.NoError(t, err)
}

// Un fallo al avanzar cuotas sin transaccion real debe compensar borrando el
// pago recien insertado: nunca queda un pago sin cuota que lo respalde.
func TestRegistrarPagoCompensaFalloDeUpdate(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	f.prestamos.failCAS = true
	_, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, dto.RegistrarPagoRequest{
		Monto: dec("36.67"), Metodo: "efectivo",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindStore))

	n, err := f.pagos.CountByPrestamo(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
	assert.Equal(t, 1, f.pagos.deletes)

	p, err := f.prestamos.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.CuotasPagadas)
}

// Dos cobradores sobre el mismo prestamo: el candado por prestamo serializa y
// cada pago avanza exactamente una cuota.
func TestRegistrarPagoConcurrente(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	const cobros = 20
	var wg sync.WaitGroup
	errs := make(chan error, cobros)
	for i := 0; i < cobros; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RegistrarPago(context.Background(), f.supervisor, id, dto.RegistrarPagoRequest{
				Monto: dec("36.67"), Metodo: "efectivo",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	p, err := f.prestamos.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, cobros, p.CuotasPagadas)

	n, err := f.pagos.CountByPrestamo(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, cobros, n)
}

// ── Eliminar ─────────────────────────────────────────────────────────────────

func TestEliminarConPagosConflicto(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	_, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, dto.RegistrarPagoRequest{
		Monto: dec("36.67"), Metodo: "efectivo",
	})
	require.NoError(t, err)

	err = f.svc.Eliminar(context.Background(), f.admin, id)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	// Un asesor nunca borra, con o sin pagos.
	err = f.svc.Eliminar(context.Background(), f.asesor, id)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestEliminarSinPagos(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	require.NoError(t, f.svc.Eliminar(context.Background(), f.admin, id))
	_, err := f.prestamos.FindByID(context.Background(), id)
	assert.Error(t, err)
}

// ── Cronograma / Obtener ─────────────────────────────────────────────────────

func TestCronogramaSumaMontoTotal(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "1000", "10", 30, amortizacion.FrecuenciaDiaria)

	crono, err := f.svc.Cronograma(context.Background(), f.asesor, id)
	require.NoError(t, err)
	require.Len(t, crono.Cuotas, 30)

	suma := decimal.Zero
	for _, c := range crono.Cuotas {
		suma = suma.Add(c.Monto)
	}
	assert.True(t, suma.Equal(crono.MontoTotal), "suma %s vs total %s", suma, crono.MontoTotal)
}

func TestObtenerDerivaAtrasado(t *testing.T) {
	f := newPrestamoFixture(t)

	// Prestamo diario iniciado hace una semana, sin pagos: vencio hace dias.
	viejo := &model.Prestamo{
		ID:             uuid.New(),
		ClienteID:      f.cliente.ID,
		Monto:          dec("1000"),
		Interes:        dec("10"),
		MontoTotal:     dec("1100"),
		FrecuenciaPago: amortizacion.FrecuenciaDiaria,
		TotalCuotas:    30,
		CuotasPagadas:  0,
		FechaInicio:    time.Now().AddDate(0, 0, -7),
		Estado:         amortizacion.EstadoActivo,
		Cliente:        f.cliente,
	}
	require.NoError(t, f.prestamos.Create(context.Background(), viejo))

	resp, err := f.svc.Obtener(context.Background(), f.asesor, viejo.ID)
	require.NoError(t, err)
	assert.Equal(t, amortizacion.EstadoAtrasado, resp.Estado)
	assert.Greater(t, resp.DiasAtraso, 0)

	// El estado derivado nunca se persiste.
	almacenado, err := f.prestamos.FindByID(context.Background(), viejo.ID)
	require.NoError(t, err)
	assert.Equal(t, amortizacion.EstadoActivo, almacenado.Estado)
}

func TestRegistrarPagoLiberaCandadoAlCompletar(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "100", "10", 2, amortizacion.FrecuenciaDiaria)

	impl, ok := f.svc.(*prestamoService)
	require.True(t, ok)

	req := dto.RegistrarPagoRequest{Monto: dec("55.00"), Metodo: "efectivo"}
	_, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
	require.NoError(t, err)

	impl.candadosMu.Lock()
	_, vivo := impl.candados[id]
	impl.candadosMu.Unlock()
	assert.True(t, vivo, "un prestamo activo conserva su candado")

	resp, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
	require.NoError(t, err)
	require.Equal(t, amortizacion.EstadoCompletado, resp.Prestamo.Estado)

	impl.candadosMu.Lock()
	_, vivo = impl.candados[id]
	impl.candadosMu.Unlock()
	assert.False(t, vivo, "al completar, el candado del prestamo se libera")
}

func TestEliminarLiberaCandado(t *testing.T) {
	f := newPrestamoFixture(t)
	id := f.solicitarActivo(t, "100", "10", 2, amortizacion.FrecuenciaDiaria)

	impl, ok := f.svc.(*prestamoService)
	require.True(t, ok)

	// Un pago crea el candado; se revierte despues para poder eliminar.
	req := dto.RegistrarPagoRequest{Monto: dec("55.00"), Metodo: "efectivo"}
	_, err := f.svc.RegistrarPago(context.Background(), f.asesor, id, req)
	require.NoError(t, err)

	pagos, err := f.pagos.ListByPrestamo(context.Background(), id)
	require.NoError(t, err)
	for _, pago := range pagos {
		require.NoError(t, f.pagos.Delete(context.Background(), pago.ID))
	}

	require.NoError(t, f.svc.Eliminar(context.Background(), f.admin, id))

	impl.candadosMu.Lock()
	_, vivo := impl.candados[id]
	impl.candadosMu.Unlock()
	assert.False(t, vivo, "al eliminar el prestamo, su candado se libera")
}

func TestListarDerivadosPaginaTrasFiltrar(t *testing.T) {
	f := newPrestamoFixture(t)

	nuevo := func(fechaInicio time.Time) {
		require.NoError(t, f.prestamos.Create(context.Background(), &model.Prestamo{
			ID:             uuid.New(),
			ClienteID:      f.cliente.ID,
			Monto:          dec("1000"),
			Interes:        dec("10"),
			MontoTotal:     dec("1100"),
			FrecuenciaPago: amortizacion.FrecuenciaDiaria,
			TotalCuotas:    30,
			CuotasPagadas:  0,
			FechaInicio:    fechaInicio,
			Estado:         amortizacion.EstadoActivo,
			Cliente:        f.cliente,
		}))
	}

	// Cinco prestamos al dia y tres vencidos hace dias: todos almacenados
	// como activo.
	for i := 0; i < 5; i++ {
		nuevo(time.Now())
	}
	for i := 0; i < 3; i++ {
		nuevo(time.Now().AddDate(0, 0, -7))
	}

	// El filtro atrasado pagina sobre el conjunto derivado, no el almacenado.
	resp, err := f.svc.Listar(context.Background(), f.admin, dto.PrestamoFilter{
		Estado: amortizacion.EstadoAtrasado, Page: 1, Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, resp.Data, 2)

	resp, err = f.svc.Listar(context.Background(), f.admin, dto.PrestamoFilter{
		Estado: amortizacion.EstadoAtrasado, Page: 2, Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, resp.Data, 1)
	for _, p := range resp.Data {
		assert.Equal(t, amortizacion.EstadoAtrasado, p.Estado)
	}

	resp, err = f.svc.Listar(context.Background(), f.admin, dto.PrestamoFilter{
		Estado: amortizacion.EstadoActivo, Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, resp.Total)
	assert.Len(t, resp.Data, 5)
	for _, p := range resp.Data {
		assert.Equal(t, amortizacion.EstadoActivo, p.Estado)
	}

	// Una pagina mas alla del final queda vacia pero conserva el total.
	resp, err = f.svc.Listar(context.Background(), f.admin, dto.PrestamoFilter{
		Estado: amortizacion.EstadoAtrasado, Page: 3, Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Empty(t, resp.Data)
}
