package dto

import "github.com/shopspring/decimal"

// ResumenCartera is the portfolio dashboard aggregate: totals plus a per-estado
// breakdown with the derived "atrasado" counted from wall-clock time.
type ResumenCartera struct {
	TotalPrestado  decimal.Decimal `json:"total_prestado"`
	TotalPorCobrar decimal.Decimal `json:"total_por_cobrar"`
	TotalCobrado   decimal.Decimal `json:"total_cobrado"`
	// MorosidadPct = monto of atrasado loans / monto of activos+atrasados * 100.
	MorosidadPct decimal.Decimal `json:"morosidad_pct"`

	Pendientes  int `json:"pendientes"`
	Activos     int `json:"activos"`
	Atrasados   int `json:"atrasados"`
	Completados int `json:"completados"`
	Rechazados  int `json:"rechazados"`

	Clientes int `json:"clientes"`
}

// ResumenAsesor is one asesor's slice of the cartera.
type ResumenAsesor struct {
	AsesorID       string          `json:"asesor_id"`
	AsesorNombre   string          `json:"asesor_nombre"`
	Clientes       int             `json:"clientes"`
	PrestamosVivos int             `json:"prestamos_vivos"`
	Atrasados      int             `json:"atrasados"`
	TotalPrestado  decimal.Decimal `json:"total_prestado"`
	TotalCobrado   decimal.Decimal `json:"total_cobrado"`
}

type ReporteAsesoresResponse struct {
	Data []ResumenAsesor `json:"data"`
}
