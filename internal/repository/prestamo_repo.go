package repository

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrestamoRepository interface {
	Create(ctx context.Context, p *model.Prestamo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error)
	// List scopes by asesor like ClienteRepository.List. Estado filtering for
	// the derived "atrasado" happens in the service, after derivation.
	List(ctx context.Context, filter dto.PrestamoFilter, asesorIDs []uuid.UUID) ([]model.Prestamo, int64, error)
	// ListVigentes returns every non-rejected loan with its cliente preloaded,
	// for report aggregation.
	ListVigentes(ctx context.Context) ([]model.Prestamo, error)
	Update(ctx context.Context, p *model.Prestamo) error
	// UpdateCuotasTx advances cuotas_pagadas/estado inside the posting
	// transaction, guarded so a concurrent post cannot replay the same count.
	UpdateCuotasTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, cuotasAntes, cuotasDespues int, estado string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type prestamoRepo struct{ db *gorm.DB }

func NewPrestamoRepository(db *gorm.DB) PrestamoRepository { return &prestamoRepo{db: db} }

func (r *prestamoRepo) DB() *gorm.DB { return r.db }

func (r *prestamoRepo) Create(ctx context.Context, p *model.Prestamo) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *prestamoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prestamo, error) {
	var p model.Prestamo
	err := r.db.WithContext(ctx).Preload("Cliente").Preload("Cliente.Asesor").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *prestamoRepo) List(ctx context.Context, filter dto.PrestamoFilter, asesorIDs []uuid.UUID) ([]model.Prestamo, int64, error) {
	var prestamos []model.Prestamo
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Prestamo{}).
		Joins("JOIN clientes ON clientes.id = prestamos.cliente_id")

	if asesorIDs != nil {
		q = q.Where("clientes.asesor_id IN ?", asesorIDs)
	}
	if filter.ClienteID != "" {
		q = q.Where("prestamos.cliente_id = ?", filter.ClienteID)
	}
	if filter.AsesorID != "" {
		q = q.Where("clientes.asesor_id = ?", filter.AsesorID)
	}
	// "atrasado" only exists after derivation and is stored as "activo". For
	// those two filters every stored-activo row is returned unpaginated: the
	// service derives the estado, filters, and paginates the result, so the
	// reported total and page contents stay consistent.
	paginar := true
	switch filter.Estado {
	case "", "all":
	case amortizacion.EstadoActivo, amortizacion.EstadoAtrasado:
		q = q.Where("prestamos.estado = ?", amortizacion.EstadoActivo)
		paginar = false
	default:
		q = q.Where("prestamos.estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Preload("Cliente").Preload("Cliente.Asesor").
		Order("prestamos.created_at DESC")
	if paginar {
		q = q.Offset(offset).Limit(filter.Limit)
	}
	err := q.Find(&prestamos).Error

	return prestamos, total, err
}

func (r *prestamoRepo) ListVigentes(ctx context.Context) ([]model.Prestamo, error) {
	var prestamos []model.Prestamo
	err := r.db.WithContext(ctx).
		Where("estado <> ?", amortizacion.EstadoRechazado).
		Preload("Cliente").
		Find(&prestamos).Error
	return prestamos, err
}

func (r *prestamoRepo) Update(ctx context.Context, p *model.Prestamo) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *prestamoRepo) UpdateCuotasTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, cuotasAntes, cuotasDespues int, estado string) error {
	// Conditional update: the WHERE on cuotas_pagadas makes the increment a
	// compare-and-swap, so two posts racing on the same loan cannot both apply.
	res := tx.WithContext(ctx).Model(&model.Prestamo{}).
		Where("id = ? AND cuotas_pagadas = ?", id, cuotasAntes).
		Updates(map[string]interface{}{"cuotas_pagadas": cuotasDespues, "estado": estado})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *prestamoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Prestamo{}, "id = ?", id).Error
}
