package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Meta holds one asesor's monthly targets against actuals. One row per
// asesor + periodo. Cumplimiento percentages and the clasificacion are derived
// on read, never stored.
type Meta struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AsesorID uuid.UUID `gorm:"type:uuid;index:idx_meta_asesor_periodo,unique;not null"`
	// Periodo is the calendar month "YYYY-MM".
	Periodo string `gorm:"type:varchar(7);index:idx_meta_asesor_periodo,unique;not null"`

	MetaClientes decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RealClientes decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	MetaCobranza decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RealCobranza decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	// Morosidad is a "lower is better" metric but its cumplimiento is computed
	// the same way as the rest (real/meta*100); it is excluded from the average
	// that drives the clasificacion.
	MetaMorosidad decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	RealMorosidad decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`

	MetaCartera decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RealCartera decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Asesor *Usuario `gorm:"foreignKey:AsesorID"`
}
