package repository

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByDNI(ctx context.Context, dni string) (*model.Cliente, error)
	// List applies the visibility scope: nil asesorIDs = unrestricted (admins),
	// otherwise only clientes owned by one of the given asesores are returned.
	List(ctx context.Context, filter dto.ClienteFilter, asesorIDs []uuid.UUID) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountPrestamosVivos counts the cliente's loans in a non-terminal state.
	CountPrestamosVivos(ctx context.Context, clienteID uuid.UUID) (int64, error)
	CountPorAsesor(ctx context.Context, asesorID uuid.UUID) (int64, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Asesor").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByDNI(ctx context.Context, dni string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("dni = ?", dni).First(&c).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter, asesorIDs []uuid.UUID) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Cliente{})

	if asesorIDs != nil {
		q = q.Where("asesor_id IN ?", asesorIDs)
	}
	if filter.AsesorID != "" {
		q = q.Where("asesor_id = ?", filter.AsesorID)
	}
	if filter.Busqueda != "" {
		like := "%" + filter.Busqueda + "%"
		q = q.Where("nombre ILIKE ? OR dni LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Asesor").
		Order("nombre").
		Offset(offset).Limit(filter.Limit).
		Find(&clientes).Error

	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Cliente{}, "id = ?", id).Error
}

func (r *clienteRepo) CountPrestamosVivos(ctx context.Context, clienteID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Where("cliente_id = ? AND estado IN ?", clienteID,
			[]string{amortizacion.EstadoPendiente, amortizacion.EstadoActivo}).
		Count(&n).Error
	return n, err
}

func (r *clienteRepo) CountPorAsesor(ctx context.Context, asesorID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).
		Where("asesor_id = ?", asesorID).
		Count(&n).Error
	return n, err
}
