// Package policy is the single authority for role-based access decisions.
// Every predicate is pure: it looks only at the principal and the resource
// handed to it, never at storage. No role string comparison exists outside
// this package.
package policy

import (
	"github.com/google/uuid"
)

// Role is the closed set of system roles.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdminSistema
	RoleAdministrador
	RoleSupervisor
	RoleAsesor
)

var roleNames = map[Role]string{
	RoleAdminSistema:  "admin_sistema",
	RoleAdministrador: "administrador",
	RoleSupervisor:    "supervisor",
	RoleAsesor:        "asesor",
}

// ParseRole converts a stored/claimed role string into a Role.
// Unknown strings map to RoleUnknown, which every predicate denies.
func ParseRole(s string) Role {
	for r, name := range roleNames {
		if name == s {
			return r
		}
	}
	return RoleUnknown
}

func (r Role) String() string { return roleNames[r] }

// IsValid reports whether r is one of the four system roles.
func (r Role) IsValid() bool { _, ok := roleNames[r]; return ok }

// Principal is the authenticated caller as seen by the policy: identity, role
// and (for asesores) the supervising principal.
type Principal struct {
	ID           uuid.UUID
	Role         Role
	SupervisorID *uuid.UUID
}

// Resource is anything owned, directly or through its cliente, by an asesor.
type Resource struct {
	AsesorID uuid.UUID
	// SupervisorID is the asesor's supervisor, when known. Needed only for
	// supervisor-role checks.
	SupervisorID *uuid.UUID
}

func isAdmin(p Principal) bool {
	return p.Role == RoleAdminSistema || p.Role == RoleAdministrador
}

// IsSupervisorOf reports whether the advisor's supervisor_id equals
// supervisorID. Ownership is transitive exactly one level: no supervisor
// chains are modeled.
func IsSupervisorOf(supervisorID uuid.UUID, advisorSupervisorID *uuid.UUID) bool {
	return advisorSupervisorID != nil && *advisorSupervisorID == supervisorID
}

// owns is the shared ownership test: admins see everything, a supervisor sees
// the carteras of their asesores, an asesor sees only their own cartera.
func owns(p Principal, res Resource) bool {
	switch p.Role {
	case RoleAdminSistema, RoleAdministrador:
		return true
	case RoleSupervisor:
		return IsSupervisorOf(p.ID, res.SupervisorID)
	case RoleAsesor:
		return res.AsesorID == p.ID
	default:
		return false
	}
}

func CanReadClient(p Principal, res Resource) bool  { return owns(p, res) }
func CanWriteClient(p Principal, res Resource) bool { return owns(p, res) }

// CanDeleteClient allows only the admin roles. The zero-active-loans guard is
// delegated to the caller, which must consult storage before deleting.
func CanDeleteClient(p Principal, res Resource) bool { return isAdmin(p) }

// Loan predicates mirror the client ones: a loan is owned through its
// cliente's asesor.
func CanReadLoan(p Principal, res Resource) bool  { return owns(p, res) }
func CanWriteLoan(p Principal, res Resource) bool { return owns(p, res) }

// CanDeleteLoan allows only the admin roles; the zero-pagos guard is the
// caller's responsibility.
func CanDeleteLoan(p Principal, res Resource) bool { return isAdmin(p) }

// CanApproveOrRejectLoan gates the approval workflow to the admin roles.
func CanApproveOrRejectLoan(p Principal) bool { return isAdmin(p) }

// CanPostPayment allows admins and supervisors unconditionally; an asesor may
// collect only within their own cartera. The loan-is-activo check belongs to
// the lifecycle coordinator, not the policy.
func CanPostPayment(p Principal, res Resource) bool {
	if isAdmin(p) || p.Role == RoleSupervisor {
		return true
	}
	return p.Role == RoleAsesor && res.AsesorID == p.ID
}
