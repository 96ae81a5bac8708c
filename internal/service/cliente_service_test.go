package service

import (
	"context"
	"testing"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clienteFixture struct {
	svc        ClienteService
	repo       *stubClienteRepo
	usuarios   *stubUsuarioRepo
	admin      policy.Principal
	supervisor policy.Principal
	asesor     policy.Principal
}

func newClienteFixture(t *testing.T) *clienteFixture {
	t.Helper()
	repo := newStubClienteRepo()
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

	return &clienteFixture{
		svc:        NewClienteService(repo, usuarios),
		repo:       repo,
		usuarios:   usuarios,
		admin:      policy.Principal{ID: uuid.New(), Role: policy.RoleAdministrador},
		supervisor: policy.Principal{ID: supervisorID, Role: policy.RoleSupervisor},
		asesor:     policy.Principal{ID: asesorID, Role: policy.RoleAsesor, SupervisorID: &supervisorID},
	}
}

func (f *clienteFixture) crear(t *testing.T, dni string) *dto.ClienteResponse {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), f.asesor, dto.CrearClienteRequest{
		DNI: dni, Nombre: "Juan Perez", Telefono: "987654321",
	})
	require.NoError(t, err)
	return resp
}

func TestCrearClienteAsesorSeAsignaASiMismo(t *testing.T) {
	f := newClienteFixture(t)
	resp := f.crear(t, "12345678")
	assert.Equal(t, f.asesor.ID.String(), resp.AsesorID)
	assert.Equal(t, "Nuevo", resp.HistorialPago)
}

func TestCrearClienteAdminDebeNombrarAsesor(t *testing.T) {
	f := newClienteFixture(t)

	_, err := f.svc.Crear(context.Background(), f.admin, dto.CrearClienteRequest{
		DNI: "12345678", Nombre: "Juan Perez", Telefono: "987654321",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	asesorID := f.asesor.ID.String()
	resp, err := f.svc.Crear(context.Background(), f.admin, dto.CrearClienteRequest{
		DNI: "12345678", Nombre: "Juan Perez", Telefono: "987654321",
		AsesorID: &asesorID,
	})
	require.NoError(t, err)
	assert.Equal(t, asesorID, resp.AsesorID)
}

func TestCrearClienteDNIDuplicado(t *testing.T) {
	f := newClienteFixture(t)
	f.crear(t, "12345678")

	_, err := f.svc.Crear(context.Background(), f.asesor, dto.CrearClienteRequest{
		DNI: "12345678", Nombre: "Otro Nombre", Telefono: "911111111",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestActualizarClienteRespetaCartera(t *testing.T) {
	f := newClienteFixture(t)
	resp := f.crear(t, "12345678")
	id := uuid.MustParse(resp.ID)

	intruso := policy.Principal{ID: uuid.New(), Role: policy.RoleAsesor}
	_, err := f.svc.Actualizar(context.Background(), intruso, id, dto.ActualizarClienteRequest{
		Nombre: "Hackeado",
	})
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))

	// El supervisor del asesor si alcanza la cartera.
	actual, err := f.svc.Actualizar(context.Background(), f.supervisor, id, dto.ActualizarClienteRequest{
		HistorialPago: "Bueno",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bueno", actual.HistorialPago)
	// El DNI no cambia nunca.
	assert.Equal(t, "12345678", actual.DNI)
}

func TestEliminarClienteConPrestamosVigentes(t *testing.T) {
	f := newClienteFixture(t)
	resp := f.crear(t, "12345678")
	id := uuid.MustParse(resp.ID)

	f.repo.prestamosVivos = 2
	err := f.svc.Eliminar(context.Background(), f.admin, id)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	f.repo.prestamosVivos = 0
	require.NoError(t, f.svc.Eliminar(context.Background(), f.admin, id))
	_, err = f.repo.FindByID(context.Background(), id)
	assert.Error(t, err)
}

func TestEliminarClienteSoloAdmins(t *testing.T) {
	f := newClienteFixture(t)
	resp := f.crear(t, "12345678")
	id := uuid.MustParse(resp.ID)

	for _, p := range []policy.Principal{f.asesor, f.supervisor} {
		err := f.svc.Eliminar(context.Background(), p, id)
		assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
	}
}
