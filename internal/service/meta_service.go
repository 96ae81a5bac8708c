package service

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clasificaciones de cumplimiento de metas.
const (
	ClasificacionSobresaliente = "sobresaliente"
	ClasificacionObjetivo      = "objetivo"
	ClasificacionMejorable     = "mejorable"
)

var (
	cienPct   = decimal.NewFromInt(100)
	umbralObj = decimal.NewFromInt(80)
)

// metricasPromedio: clientes, cobranza, cartera. Morosidad stays out of the
// average because its percentage reads inverted.
const metricasPromedio = 3

type MetaService interface {
	Crear(ctx context.Context, p policy.Principal, req dto.CrearMetaRequest) (*dto.MetaResponse, error)
	Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.MetaResponse, error)
	Listar(ctx context.Context, p policy.Principal, periodo string) ([]dto.MetaResponse, error)
	Actualizar(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.ActualizarMetaRequest) (*dto.MetaResponse, error)
	Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

type metaService struct {
	repo     repository.MetaRepository
	usuarios repository.UsuarioRepository
}

func NewMetaService(repo repository.MetaRepository, usuarios repository.UsuarioRepository) MetaService {
	return &metaService{repo: repo, usuarios: usuarios}
}

func (s *metaService) Crear(ctx context.Context, p policy.Principal, req dto.CrearMetaRequest) (*dto.MetaResponse, error) {
	if !policy.CanApproveOrRejectLoan(p) { // metas are set by the admin roles
		return nil, apperrors.Unauthorized("solo un administrador puede definir metas")
	}
	asesorID, err := uuid.Parse(req.AsesorID)
	if err != nil {
		return nil, apperrors.Validation("asesor_id invalido")
	}
	asesor, err := s.usuarios.FindByID(ctx, asesorID)
	if err != nil || policy.ParseRole(asesor.Rol) != policy.RoleAsesor {
		return nil, apperrors.Validation("el asesor indicado no existe")
	}
	if _, err := s.repo.FindByAsesorPeriodo(ctx, asesorID, req.Periodo); err == nil {
		return nil, apperrors.Conflict("ya existe una meta para ese asesor y periodo")
	}

	meta := &model.Meta{
		AsesorID:      asesorID,
		Periodo:       req.Periodo,
		MetaClientes:  req.MetaClientes,
		MetaCobranza:  req.MetaCobranza,
		MetaMorosidad: req.MetaMorosidad,
		MetaCartera:   req.MetaCartera,
	}
	if err := s.repo.Create(ctx, meta); err != nil {
		return nil, apperrors.Store("no se pudo crear la meta", err)
	}
	meta.Asesor = asesor
	return metaToResponse(meta), nil
}

func (s *metaService) Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.MetaResponse, error) {
	meta, err := s.cargarAutorizada(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return metaToResponse(meta), nil
}

func (s *metaService) Listar(ctx context.Context, p policy.Principal, periodo string) ([]dto.MetaResponse, error) {
	asesorIDs, err := visibleAsesorIDs(ctx, p, s.usuarios)
	if err != nil {
		return nil, err
	}
	metas, err := s.repo.List(ctx, periodo, asesorIDs)
	if err != nil {
		return nil, apperrors.Store("no se pudo listar las metas", err)
	}
	items := make([]dto.MetaResponse, 0, len(metas))
	for i := range metas {
		items = append(items, *metaToResponse(&metas[i]))
	}
	return items, nil
}

func (s *metaService) Actualizar(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.ActualizarMetaRequest) (*dto.MetaResponse, error) {
	if !policy.CanApproveOrRejectLoan(p) {
		return nil, apperrors.Unauthorized("solo un administrador puede actualizar metas")
	}
	meta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("meta no encontrada")
	}

	assign := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&meta.MetaClientes, req.MetaClientes)
	assign(&meta.RealClientes, req.RealClientes)
	assign(&meta.MetaCobranza, req.MetaCobranza)
	assign(&meta.RealCobranza, req.RealCobranza)
	assign(&meta.MetaMorosidad, req.MetaMorosidad)
	assign(&meta.RealMorosidad, req.RealMorosidad)
	assign(&meta.MetaCartera, req.MetaCartera)
	assign(&meta.RealCartera, req.RealCartera)

	if err := s.repo.Update(ctx, meta); err != nil {
		return nil, apperrors.Store("no se pudo actualizar la meta", err)
	}
	return metaToResponse(meta), nil
}

func (s *metaService) Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if !policy.CanApproveOrRejectLoan(p) {
		return apperrors.Unauthorized("solo un administrador puede eliminar metas")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperrors.NotFound("meta no encontrada")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Store("no se pudo eliminar la meta", err)
	}
	return nil
}

func (s *metaService) cargarAutorizada(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Meta, error) {
	meta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("meta no encontrada")
	}
	res := policy.Resource{AsesorID: meta.AsesorID}
	if meta.Asesor != nil {
		res.SupervisorID = meta.Asesor.SupervisorID
	}
	if !policy.CanReadClient(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos sobre esta meta")
	}
	return meta, nil
}

// ── Derivation ───────────────────────────────────────────────────────────────

// Cumplimiento computes real/meta*100 rounded to 2 places; zero meta yields 0.
// Morosidad uses the same formula as the rest even though lower is better —
// the inversion question is product-level and the raw percentage is reported
// as-is.
func Cumplimiento(meta, real decimal.Decimal) decimal.Decimal {
	if meta.IsZero() {
		return decimal.Zero
	}
	return real.Div(meta).Mul(cienPct).Round(2)
}

// ClasificarMeta averages the cumplimiento of clientes, cobranza and cartera
// (morosidad excluded) and buckets: ≥100 sobresaliente, ≥80 objetivo, else
// mejorable.
func ClasificarMeta(m *model.Meta) (decimal.Decimal, string) {
	suma := Cumplimiento(m.MetaClientes, m.RealClientes).
		Add(Cumplimiento(m.MetaCobranza, m.RealCobranza)).
		Add(Cumplimiento(m.MetaCartera, m.RealCartera))
	promedio := suma.DivRound(decimal.NewFromInt(metricasPromedio), 2)

	switch {
	case promedio.GreaterThanOrEqual(cienPct):
		return promedio, ClasificacionSobresaliente
	case promedio.GreaterThanOrEqual(umbralObj):
		return promedio, ClasificacionObjetivo
	default:
		return promedio, ClasificacionMejorable
	}
}

func metaToResponse(m *model.Meta) *dto.MetaResponse {
	promedio, clasificacion := ClasificarMeta(m)
	resp := &dto.MetaResponse{
		ID:       m.ID.String(),
		AsesorID: m.AsesorID.String(),
		Periodo:  m.Periodo,
		Clientes: dto.CumplimientoMetrica{
			Meta: m.MetaClientes, Real: m.RealClientes,
			Porcentaje: Cumplimiento(m.MetaClientes, m.RealClientes),
		},
		Cobranza: dto.CumplimientoMetrica{
			Meta: m.MetaCobranza, Real: m.RealCobranza,
			Porcentaje: Cumplimiento(m.MetaCobranza, m.RealCobranza),
		},
		Morosidad: dto.CumplimientoMetrica{
			Meta: m.MetaMorosidad, Real: m.RealMorosidad,
			Porcentaje: Cumplimiento(m.MetaMorosidad, m.RealMorosidad),
		},
		Cartera: dto.CumplimientoMetrica{
			Meta: m.MetaCartera, Real: m.RealCartera,
			Porcentaje: Cumplimiento(m.MetaCartera, m.RealCartera),
		},
		CumplimientoPromedio: promedio,
		Clasificacion:        clasificacion,
	}
	if m.Asesor != nil {
		resp.AsesorNombre = m.Asesor.Nombre
	}
	return resp
}
