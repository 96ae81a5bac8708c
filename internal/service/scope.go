package service

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
)

// visibleAsesorIDs resolves which asesores' carteras the principal may see.
// nil means unrestricted (admin roles); an empty slice means nothing at all.
func visibleAsesorIDs(ctx context.Context, p policy.Principal, usuarios repository.UsuarioRepository) ([]uuid.UUID, error) {
	switch p.Role {
	case policy.RoleAdminSistema, policy.RoleAdministrador:
		return nil, nil
	case policy.RoleSupervisor:
		asesores, err := usuarios.ListAsesoresPorSupervisor(ctx, p.ID)
		if err != nil {
			return nil, apperrors.Store("no se pudo resolver los asesores supervisados", err)
		}
		ids := make([]uuid.UUID, 0, len(asesores))
		for _, a := range asesores {
			ids = append(ids, a.ID)
		}
		return ids, nil
	case policy.RoleAsesor:
		return []uuid.UUID{p.ID}, nil
	default:
		return []uuid.UUID{}, nil
	}
}

// resourceForCliente builds the policy resource for a cliente, resolving the
// owning asesor's supervisor when it is not already preloaded. A failed lookup
// leaves SupervisorID nil, which fails closed for non-admin principals.
func resourceForCliente(ctx context.Context, c *model.Cliente, usuarios repository.UsuarioRepository) policy.Resource {
	res := policy.Resource{AsesorID: c.AsesorID}
	if c.Asesor != nil {
		res.SupervisorID = c.Asesor.SupervisorID
		return res
	}
	if asesor, err := usuarios.FindByID(ctx, c.AsesorID); err == nil {
		res.SupervisorID = asesor.SupervisorID
	}
	return res
}
