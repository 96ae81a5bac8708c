package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearMetaRequest struct {
	AsesorID string `json:"asesor_id" validate:"required,uuid"`
	// Periodo is the calendar month "YYYY-MM".
	Periodo       string          `json:"periodo"        validate:"required,datetime=2006-01"`
	MetaClientes  decimal.Decimal `json:"meta_clientes"  validate:"required"`
	MetaCobranza  decimal.Decimal `json:"meta_cobranza"  validate:"required"`
	MetaMorosidad decimal.Decimal `json:"meta_morosidad" validate:"required"`
	MetaCartera   decimal.Decimal `json:"meta_cartera"   validate:"required"`
}

type ActualizarMetaRequest struct {
	MetaClientes  *decimal.Decimal `json:"meta_clientes"`
	RealClientes  *decimal.Decimal `json:"real_clientes"`
	MetaCobranza  *decimal.Decimal `json:"meta_cobranza"`
	RealCobranza  *decimal.Decimal `json:"real_cobranza"`
	MetaMorosidad *decimal.Decimal `json:"meta_morosidad"`
	RealMorosidad *decimal.Decimal `json:"real_morosidad"`
	MetaCartera   *decimal.Decimal `json:"meta_cartera"`
	RealCartera   *decimal.Decimal `json:"real_cartera"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CumplimientoMetrica pairs one target/actual with its fulfillment percent.
type CumplimientoMetrica struct {
	Meta       decimal.Decimal `json:"meta"`
	Real       decimal.Decimal `json:"real"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

// MetaResponse carries the derived cumplimiento per metric plus the overall
// clasificacion: "sobresaliente" | "objetivo" | "mejorable".
type MetaResponse struct {
	ID           string              `json:"id"`
	AsesorID     string              `json:"asesor_id"`
	AsesorNombre string              `json:"asesor_nombre,omitempty"`
	Periodo      string              `json:"periodo"`
	Clientes     CumplimientoMetrica `json:"clientes"`
	Cobranza     CumplimientoMetrica `json:"cobranza"`
	Morosidad    CumplimientoMetrica `json:"morosidad"`
	Cartera      CumplimientoMetrica `json:"cartera"`
	// CumplimientoPromedio averages clientes/cobranza/cartera; morosidad is
	// excluded because its percentage reads inverted.
	CumplimientoPromedio decimal.Decimal `json:"cumplimiento_promedio"`
	Clasificacion        string          `json:"clasificacion"`
}
