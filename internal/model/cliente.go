package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a borrower. Every cliente belongs to exactly one asesor, whose
// identity drives all access decisions for the cliente and its prestamos.
// DNI is immutable after creation.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DNI       string    `gorm:"type:varchar(8);uniqueIndex;not null"`
	Nombre    string    `gorm:"index;not null"`
	Telefono  string    `gorm:"type:varchar(9);not null"`
	Direccion string
	// Referencias holds free-text contact references collected at intake.
	Referencias string
	// HistorialPago: "Nuevo" | "Bueno" | "Regular" | "Malo"
	HistorialPago string    `gorm:"type:varchar(10);not null;default:'Nuevo'"`
	AsesorID      uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Asesor *Usuario `gorm:"foreignKey:AsesorID"`
}
