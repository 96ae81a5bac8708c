package repository

import (
	"context"

	"github.com/fjsv09/profinanzas-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PagoRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, p *model.Pago) error
	// Delete exists only as the compensating rollback for a failed loan update
	// after the pago insert; pagos have no user-facing delete.
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]model.Pago, error)
	CountByPrestamo(ctx context.Context, prestamoID uuid.UUID) (int64, error)
	SumTotal(ctx context.Context) (decimal.Decimal, error)
	// SumPorAsesor totals collected pagos per owning asesor (pagos → prestamos
	// → clientes join).
	SumPorAsesor(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

type pagoRepo struct{ db *gorm.DB }

func NewPagoRepository(db *gorm.DB) PagoRepository { return &pagoRepo{db: db} }

func (r *pagoRepo) CreateTx(ctx context.Context, tx *gorm.DB, p *model.Pago) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *pagoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Pago{}, "id = ?", id).Error
}

func (r *pagoRepo) ListByPrestamo(ctx context.Context, prestamoID uuid.UUID) ([]model.Pago, error) {
	var pagos []model.Pago
	err := r.db.WithContext(ctx).
		Where("prestamo_id = ?", prestamoID).
		Order("fecha_pago").
		Find(&pagos).Error
	return pagos, err
}

func (r *pagoRepo) CountByPrestamo(ctx context.Context, prestamoID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Pago{}).
		Where("prestamo_id = ?", prestamoID).
		Count(&n).Error
	return n, err
}

func (r *pagoRepo) SumTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Pago{}).
		Select("SUM(monto)").
		Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *pagoRepo) SumPorAsesor(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	rows := []struct {
		AsesorID uuid.UUID
		Total    decimal.Decimal
	}{}
	err := r.db.WithContext(ctx).Model(&model.Pago{}).
		Select("clientes.asesor_id AS asesor_id, SUM(pagos.monto) AS total").
		Joins("JOIN prestamos ON prestamos.id = pagos.prestamo_id").
		Joins("JOIN clientes ON clientes.id = prestamos.cliente_id").
		Group("clientes.asesor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.AsesorID] = row.Total
	}
	return out, nil
}
