package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prestamo is a flat-interest loan repaid in equal installments on a fixed cadence.
//
// Estado persists only the transition-driven states:
// "pendiente" | "activo" | "completado" | "rechazado".
// "atrasado" is a view-time label derived from wall-clock time and is never stored.
type Prestamo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID uuid.UUID `gorm:"type:uuid;index;not null"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Interes is the flat rate percent applied once over the whole term.
	Interes decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	// MontoTotal = Monto * (1 + Interes/100). Recomputed whenever Monto or
	// Interes changes; the stored column is a convenience, never ground truth.
	MontoTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// FrecuenciaPago: "diario" | "semanal" | "quincenal" | "mensual"
	FrecuenciaPago string    `gorm:"type:varchar(10);not null"`
	TotalCuotas    int       `gorm:"not null"`
	CuotasPagadas  int       `gorm:"not null;default:0"`
	FechaInicio    time.Time `gorm:"not null"`
	Estado         string    `gorm:"type:varchar(10);index;not null;default:'pendiente'"`

	// Approval metadata, set by Approve/Reject.
	AprobadoPor          *uuid.UUID `gorm:"type:uuid"`
	FechaAprobacion      *time.Time
	ComentarioAprobacion *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
}
