package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdminSistema, ParseRole("admin_sistema"))
	assert.Equal(t, RoleAdministrador, ParseRole("administrador"))
	assert.Equal(t, RoleSupervisor, ParseRole("supervisor"))
	assert.Equal(t, RoleAsesor, ParseRole("asesor"))

	// Everything outside the closed set maps to RoleUnknown and is denied.
	for _, s := range []string{"", "root", "Administrador", "gerente"} {
		r := ParseRole(s)
		assert.Equal(t, RoleUnknown, r, s)
		assert.False(t, r.IsValid(), s)
		assert.False(t, CanReadClient(Principal{Role: r}, Resource{}), s)
	}
}

func TestOwnershipMatrix(t *testing.T) {
	supervisorID := uuid.New()
	asesorID := uuid.New()
	otroAsesorID := uuid.New()
	otroSupervisorID := uuid.New()

	admin := Principal{ID: uuid.New(), Role: RoleAdministrador}
	adminSis := Principal{ID: uuid.New(), Role: RoleAdminSistema}
	supervisor := Principal{ID: supervisorID, Role: RoleSupervisor}
	asesor := Principal{ID: asesorID, Role: RoleAsesor, SupervisorID: &supervisorID}

	propia := Resource{AsesorID: asesorID, SupervisorID: &supervisorID}
	ajena := Resource{AsesorID: otroAsesorID, SupervisorID: &otroSupervisorID}

	tests := []struct {
		name string
		p    Principal
		res  Resource
		want bool
	}{
		{"admin lee cualquiera", admin, ajena, true},
		{"admin_sistema lee cualquiera", adminSis, ajena, true},
		{"supervisor lee cartera supervisada", supervisor, propia, true},
		{"supervisor no lee cartera ajena", supervisor, ajena, false},
		{"asesor lee su cartera", asesor, propia, true},
		{"asesor no lee cartera ajena", asesor, ajena, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReadClient(tt.p, tt.res))
			assert.Equal(t, tt.want, CanWriteClient(tt.p, tt.res))
			assert.Equal(t, tt.want, CanReadLoan(tt.p, tt.res))
			assert.Equal(t, tt.want, CanWriteLoan(tt.p, tt.res))
		})
	}
}

// Ownership is one hop: a supervisor's supervisor gains nothing over the
// asesores two levels down.
func TestSupervisorSinCadena(t *testing.T) {
	jefe := Principal{ID: uuid.New(), Role: RoleSupervisor}
	intermedio := uuid.New()

	res := Resource{AsesorID: uuid.New(), SupervisorID: &intermedio}
	assert.False(t, CanReadClient(jefe, res))
	assert.False(t, IsSupervisorOf(jefe.ID, res.SupervisorID))
	assert.True(t, IsSupervisorOf(intermedio, res.SupervisorID))
}

func TestDeleteSoloAdmins(t *testing.T) {
	supervisorID := uuid.New()
	asesor := Principal{ID: uuid.New(), Role: RoleAsesor, SupervisorID: &supervisorID}
	supervisor := Principal{ID: supervisorID, Role: RoleSupervisor}
	propia := Resource{AsesorID: asesor.ID, SupervisorID: &supervisorID}

	// Ni el dueño de la cartera ni su supervisor pueden borrar.
	assert.False(t, CanDeleteClient(asesor, propia))
	assert.False(t, CanDeleteLoan(asesor, propia))
	assert.False(t, CanDeleteClient(supervisor, propia))
	assert.False(t, CanDeleteLoan(supervisor, propia))

	for _, r := range []Role{RoleAdminSistema, RoleAdministrador} {
		admin := Principal{ID: uuid.New(), Role: r}
		assert.True(t, CanDeleteClient(admin, propia))
		assert.True(t, CanDeleteLoan(admin, propia))
	}
}

func TestCanApproveOrRejectLoan(t *testing.T) {
	assert.True(t, CanApproveOrRejectLoan(Principal{Role: RoleAdminSistema}))
	assert.True(t, CanApproveOrRejectLoan(Principal{Role: RoleAdministrador}))
	assert.False(t, CanApproveOrRejectLoan(Principal{Role: RoleSupervisor}))
	assert.False(t, CanApproveOrRejectLoan(Principal{Role: RoleAsesor}))
	assert.False(t, CanApproveOrRejectLoan(Principal{Role: RoleUnknown}))
}

func TestCanPostPayment(t *testing.T) {
	supervisorID := uuid.New()
	asesor := Principal{ID: uuid.New(), Role: RoleAsesor, SupervisorID: &supervisorID}
	propia := Resource{AsesorID: asesor.ID, SupervisorID: &supervisorID}
	ajena := Resource{AsesorID: uuid.New()}

	assert.True(t, CanPostPayment(asesor, propia))
	assert.False(t, CanPostPayment(asesor, ajena))

	// Supervisores y admins cobran sobre cualquier cartera.
	assert.True(t, CanPostPayment(Principal{ID: uuid.New(), Role: RoleSupervisor}, ajena))
	assert.True(t, CanPostPayment(Principal{Role: RoleAdministrador}, ajena))
	assert.True(t, CanPostPayment(Principal{Role: RoleAdminSistema}, ajena))
	assert.False(t, CanPostPayment(Principal{Role: RoleUnknown}, ajena))
}
