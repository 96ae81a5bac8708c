package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pago records one collected installment. Pagos are append-only: there is no
// update or delete path except the compensating rollback inside PostPayment.
type Pago struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrestamoID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FechaPago  time.Time       `gorm:"not null"`
	// Metodo: "efectivo" | "yape" | "transferencia" | "otro"
	Metodo        string `gorm:"type:varchar(15);not null"`
	Comentario    *string
	RegistradoPor uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time

	Prestamo *Prestamo `gorm:"foreignKey:PrestamoID"`
}
