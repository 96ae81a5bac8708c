package service

import (
	"context"
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"

	"github.com/google/uuid"
)

type ClienteService interface {
	Crear(ctx context.Context, p policy.Principal, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, p policy.Principal, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

type clienteService struct {
	repo     repository.ClienteRepository
	usuarios repository.UsuarioRepository
}

func NewClienteService(repo repository.ClienteRepository, usuarios repository.UsuarioRepository) ClienteService {
	return &clienteService{repo: repo, usuarios: usuarios}
}

func (s *clienteService) Crear(ctx context.Context, p policy.Principal, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	// Resolve the owning asesor: an asesor owns what they create; admins and
	// supervisores must name an asesor explicitly.
	asesorID := p.ID
	if req.AsesorID != nil {
		parsed, err := uuid.Parse(*req.AsesorID)
		if err != nil {
			return nil, apperrors.Validation("asesor_id invalido")
		}
		asesorID = parsed
	} else if p.Role != policy.RoleAsesor {
		return nil, apperrors.Validation("asesor_id es obligatorio para este rol")
	}

	asesor, err := s.usuarios.FindByID(ctx, asesorID)
	if err != nil || policy.ParseRole(asesor.Rol) != policy.RoleAsesor {
		return nil, apperrors.Validation("el asesor indicado no existe")
	}

	res := policy.Resource{AsesorID: asesorID, SupervisorID: asesor.SupervisorID}
	if !policy.CanWriteClient(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos sobre la cartera de este asesor")
	}

	if _, err := s.repo.FindByDNI(ctx, req.DNI); err == nil {
		return nil, apperrors.Conflict("ya existe un cliente con ese DNI")
	}

	historial := req.HistorialPago
	if historial == "" {
		historial = "Nuevo"
	}
	cliente := &model.Cliente{
		DNI:           req.DNI,
		Nombre:        req.Nombre,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Referencias:   req.Referencias,
		HistorialPago: historial,
		AsesorID:      asesorID,
	}
	if err := s.repo.Create(ctx, cliente); err != nil {
		return nil, apperrors.Store("no se pudo crear el cliente", err)
	}
	cliente.Asesor = asesor
	return clienteToResponse(cliente), nil
}

func (s *clienteService) Obtener(ctx context.Context, p policy.Principal, id uuid.UUID) (*dto.ClienteResponse, error) {
	cliente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("cliente no encontrado")
	}
	res := resourceForCliente(ctx, cliente, s.usuarios)
	if !policy.CanReadClient(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos sobre este cliente")
	}
	return clienteToResponse(cliente), nil
}

func (s *clienteService) Listar(ctx context.Context, p policy.Principal, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
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
	clientes, total, err := s.repo.List(ctx, filter, asesorIDs)
	if err != nil {
		return nil, apperrors.Store("no se pudo listar los clientes", err)
	}
	items := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		items = append(items, *clienteToResponse(&clientes[i]))
	}
	return &dto.ClienteListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, p policy.Principal, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	cliente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("cliente no encontrado")
	}
	res := resourceForCliente(ctx, cliente, s.usuarios)
	if !policy.CanWriteClient(p, res) {
		return nil, apperrors.Unauthorized("no tiene permisos sobre este cliente")
	}

	// DNI is immutable; the request shape does not even carry it.
	if req.Nombre != "" {
		cliente.Nombre = req.Nombre
	}
	if req.Telefono != "" {
		cliente.Telefono = req.Telefono
	}
	if req.Direccion != "" {
		cliente.Direccion = req.Direccion
	}
	if req.Referencias != "" {
		cliente.Referencias = req.Referencias
	}
	if req.HistorialPago != "" {
		cliente.HistorialPago = req.HistorialPago
	}
	cliente.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, cliente); err != nil {
		return nil, apperrors.Store("no se pudo actualizar el cliente", err)
	}
	return clienteToResponse(cliente), nil
}

func (s *clienteService) Eliminar(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	cliente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperrors.NotFound("cliente no encontrado")
	}
	res := resourceForCliente(ctx, cliente, s.usuarios)
	if !policy.CanDeleteClient(p, res) {
		return apperrors.Unauthorized("solo un administrador puede eliminar clientes")
	}
	vivos, err := s.repo.CountPrestamosVivos(ctx, id)
	if err != nil {
		return apperrors.Store("no se pudo verificar los prestamos del cliente", err)
	}
	if vivos > 0 {
		return apperrors.Conflict("el cliente tiene prestamos vigentes y no puede eliminarse")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Store("no se pudo eliminar el cliente", err)
	}
	return nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	resp := &dto.ClienteResponse{
		ID:            c.ID.String(),
		DNI:           c.DNI,
		Nombre:        c.Nombre,
		Telefono:      c.Telefono,
		Direccion:     c.Direccion,
		Referencias:   c.Referencias,
		HistorialPago: c.HistorialPago,
		AsesorID:      c.AsesorID.String(),
		CreatedAt:     c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.Asesor != nil {
		resp.AsesorNombre = c.Asesor.Nombre
	}
	return resp
}
