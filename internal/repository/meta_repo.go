package repository

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MetaRepository interface {
	Create(ctx context.Context, m *model.Meta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Meta, error)
	FindByAsesorPeriodo(ctx context.Context, asesorID uuid.UUID, periodo string) (*model.Meta, error)
	// List scopes by asesor like the other repos; empty periodo = all periods.
	List(ctx context.Context, periodo string, asesorIDs []uuid.UUID) ([]model.Meta, error)
	Update(ctx context.Context, m *model.Meta) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type metaRepo struct{ db *gorm.DB }

func NewMetaRepository(db *gorm.DB) MetaRepository { return &metaRepo{db: db} }

func (r *metaRepo) Create(ctx context.Context, m *model.Meta) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *metaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Meta, error) {
	var m model.Meta
	err := r.db.WithContext(ctx).Preload("Asesor").First(&m, "id = ?", id).Error
	return &m, err
}

func (r *metaRepo) FindByAsesorPeriodo(ctx context.Context, asesorID uuid.UUID, periodo string) (*model.Meta, error) {
	var m model.Meta
	err := r.db.WithContext(ctx).
		Where("asesor_id = ? AND periodo = ?", asesorID, periodo).
		First(&m).Error
	return &m, err
}

func (r *metaRepo) List(ctx context.Context, periodo string, asesorIDs []uuid.UUID) ([]model.Meta, error) {
	var metas []model.Meta
	q := r.db.WithContext(ctx).Model(&model.Meta{})
	if periodo != "" {
		q = q.Where("periodo = ?", periodo)
	}
	if asesorIDs != nil {
		q = q.Where("asesor_id IN ?", asesorIDs)
	}
	err := q.Preload("Asesor").Order("periodo DESC").Find(&metas).Error
	return metas, err
}

func (r *metaRepo) Update(ctx context.Context, m *model.Meta) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *metaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Meta{}, "id = ?", id).Error
}
