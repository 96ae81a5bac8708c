package dto

import (
	"github.com/shopspring/decimal"

	"github.com/fjsv09/profinanzas-sub000/internal/amortizacion"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// PrestamoFilter is bound from query string of GET /v1/prestamos.
type PrestamoFilter struct {
	// Estado accepts the derived "atrasado" as well; empty = all.
	Estado    string `form:"estado"           validate:"omitempty,oneof=pendiente activo atrasado completado rechazado all"`
	ClienteID string `form:"cliente_id"       validate:"omitempty,uuid"`
	AsesorID  string `form:"asesor_id"        validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PrestamoListResponse struct {
	Data  []PrestamoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SolicitarPrestamoRequest struct {
	ClienteID      string          `json:"cliente_id"      validate:"required,uuid"`
	Monto          decimal.Decimal `json:"monto"           validate:"required"`
	Interes        decimal.Decimal `json:"interes"`
	FrecuenciaPago string          `json:"frecuencia_pago" validate:"required,oneof=diario semanal quincenal mensual"`
	TotalCuotas    int             `json:"total_cuotas"    validate:"required,min=1"`
	// FechaInicio "2006-01-02"; empty = today.
	FechaInicio string `json:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
}

type AprobarPrestamoRequest struct {
	Comentario *string `json:"comentario" validate:"omitempty,max=500"`
}

// RechazarPrestamoRequest: the comentario is mandatory on rejection, unlike
// approval where it is optional.
type RechazarPrestamoRequest struct {
	Comentario string `json:"comentario" validate:"required,min=3,max=500"`
}

type RegistrarPagoRequest struct {
	Monto      decimal.Decimal `json:"monto"      validate:"required"`
	Metodo     string          `json:"metodo"     validate:"required,oneof=efectivo yape transferencia otro"`
	Comentario *string         `json:"comentario" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// PrestamoResponse carries the derived estado (recomputed per read, so it may
// report "atrasado") plus the advisory cuota amount.
type PrestamoResponse struct {
	ID             string          `json:"id"`
	ClienteID      string          `json:"cliente_id"`
	ClienteNombre  string          `json:"cliente_nombre,omitempty"`
	Monto          decimal.Decimal `json:"monto"`
	Interes        decimal.Decimal `json:"interes"`
	MontoTotal     decimal.Decimal `json:"monto_total"`
	FrecuenciaPago string          `json:"frecuencia_pago"`
	TotalCuotas    int             `json:"total_cuotas"`
	CuotasPagadas  int             `json:"cuotas_pagadas"`
	MontoCuota     decimal.Decimal `json:"monto_cuota"`
	FechaInicio    string          `json:"fecha_inicio"`
	Estado         string          `json:"estado"`
	// ProximoVencimiento is empty for terminal and pendiente loans.
	ProximoVencimiento string `json:"proximo_vencimiento,omitempty"`
	DiasAtraso         int    `json:"dias_atraso,omitempty"`

	AprobadoPor          *string `json:"aprobado_por,omitempty"`
	FechaAprobacion      *string `json:"fecha_aprobacion,omitempty"`
	ComentarioAprobacion *string `json:"comentario_aprobacion,omitempty"`

	CreatedAt string `json:"created_at"`
}

type CronogramaResponse struct {
	PrestamoID string                         `json:"prestamo_id"`
	MontoTotal decimal.Decimal                `json:"monto_total"`
	Cuotas     []amortizacion.CuotaProgramada `json:"cuotas"`
}

type PagoResponse struct {
	ID            string          `json:"id"`
	PrestamoID    string          `json:"prestamo_id"`
	Monto         decimal.Decimal `json:"monto"`
	FechaPago     string          `json:"fecha_pago"`
	Metodo        string          `json:"metodo"`
	Comentario    *string         `json:"comentario,omitempty"`
	RegistradoPor string          `json:"registrado_por"`
}

// RegistrarPagoResponse returns both the accepted pago and the loan as left by
// the posting (estado may have advanced to completado).
type RegistrarPagoResponse struct {
	Pago     PagoResponse     `json:"pago"`
	Prestamo PrestamoResponse `json:"prestamo"`
}
