// Package amortizacion computes flat-interest loan schedules: total payable,
// per-installment amount, due dates and the derived loan status.
//
// Everything here is pure. Money is shopspring/decimal with half-up rounding to
// 2 places — never binary floating point — so a schedule of hundreds of cuotas
// cannot accumulate rounding drift.
package amortizacion

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjsv09/profinanzas-sub000/internal/apperrors"
)

// Persisted loan states. EstadoAtrasado is derived-only: it labels an activo
// loan whose next cuota is overdue and is never written to storage.
const (
	EstadoPendiente  = "pendiente"
	EstadoActivo     = "activo"
	EstadoCompletado = "completado"
	EstadoRechazado  = "rechazado"
	EstadoAtrasado   = "atrasado"
)

// Payment cadences and their day increments.
const (
	FrecuenciaDiaria    = "diario"
	FrecuenciaSemanal   = "semanal"
	FrecuenciaQuincenal = "quincenal"
	FrecuenciaMensual   = "mensual"
)

var incrementos = map[string]int{
	FrecuenciaDiaria:    1,
	FrecuenciaSemanal:   7,
	FrecuenciaQuincenal: 15,
	FrecuenciaMensual:   30,
}

var cien = decimal.NewFromInt(100)

// Incremento returns the day count between consecutive cuotas for a cadence.
func Incremento(frecuencia string) (int, error) {
	inc, ok := incrementos[frecuencia]
	if !ok {
		return 0, apperrors.Validation("frecuencia de pago invalida: " + frecuencia)
	}
	return inc, nil
}

// Total computes monto * (1 + interes/100) rounded to centimos.
// Interes is a flat percent over the whole term, not an annualized rate.
func Total(monto, interes decimal.Decimal) (decimal.Decimal, error) {
	if monto.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, apperrors.Validation("el monto debe ser mayor a cero")
	}
	if interes.IsNegative() {
		return decimal.Zero, apperrors.Validation("el interes no puede ser negativo")
	}
	factor := decimal.NewFromInt(1).Add(interes.Div(cien))
	return monto.Mul(factor).Round(2), nil
}

// Cuota computes the even per-installment amount, rounded to centimos.
func Cuota(montoTotal decimal.Decimal, totalCuotas int) (decimal.Decimal, error) {
	if totalCuotas <= 0 {
		return decimal.Zero, apperrors.Validation("el total de cuotas debe ser mayor a cero")
	}
	return montoTotal.DivRound(decimal.NewFromInt(int64(totalCuotas)), 2), nil
}

// Cronograma returns the due date of every cuota: date i (1-indexed) falls
// fechaInicio + i*incremento days. The schedule is never stored — it is always
// re-derived from these three inputs.
func Cronograma(fechaInicio time.Time, frecuencia string, totalCuotas int) ([]time.Time, error) {
	inc, err := Incremento(frecuencia)
	if err != nil {
		return nil, err
	}
	if totalCuotas <= 0 {
		return nil, apperrors.Validation("el total de cuotas debe ser mayor a cero")
	}
	fechas := make([]time.Time, totalCuotas)
	for i := 1; i <= totalCuotas; i++ {
		fechas[i-1] = fechaInicio.AddDate(0, 0, i*inc)
	}
	return fechas, nil
}

// CuotaProgramada is one row of a projected schedule.
type CuotaProgramada struct {
	Numero           int             `json:"numero"`
	FechaVencimiento time.Time       `json:"fecha_vencimiento"`
	Monto            decimal.Decimal `json:"monto"`
	Pagada           bool            `json:"pagada"`
}

// CronogramaMontos builds the full projected schedule. Every cuota carries the
// even rounded amount except the last, which absorbs the rounding remainder so
// the schedule sums exactly to montoTotal.
func CronogramaMontos(fechaInicio time.Time, frecuencia string, totalCuotas int, montoTotal decimal.Decimal, cuotasPagadas int) ([]CuotaProgramada, error) {
	fechas, err := Cronograma(fechaInicio, frecuencia, totalCuotas)
	if err != nil {
		return nil, err
	}
	cuota, err := Cuota(montoTotal, totalCuotas)
	if err != nil {
		return nil, err
	}
	ultima := montoTotal.Sub(cuota.Mul(decimal.NewFromInt(int64(totalCuotas - 1))))

	filas := make([]CuotaProgramada, totalCuotas)
	for i := range fechas {
		monto := cuota
		if i == totalCuotas-1 {
			monto = ultima
		}
		filas[i] = CuotaProgramada{
			Numero:           i + 1,
			FechaVencimiento: fechas[i],
			Monto:            monto,
			Pagada:           i < cuotasPagadas,
		}
	}
	return filas, nil
}

// ProximoVencimiento returns the due date of the next unpaid cuota:
// fechaInicio + (cuotasPagadas+1) * incremento days. The +1 keeps a freshly
// approved loan from being overdue on day zero; the first cuota falls one full
// period after fechaInicio.
func ProximoVencimiento(fechaInicio time.Time, frecuencia string, cuotasPagadas int) (time.Time, error) {
	inc, err := Incremento(frecuencia)
	if err != nil {
		return time.Time{}, err
	}
	if cuotasPagadas < 0 {
		return time.Time{}, apperrors.Validation("cuotas pagadas no puede ser negativo")
	}
	return fechaInicio.AddDate(0, 0, (cuotasPagadas+1)*inc), nil
}

// Parametros is the read-only slice of a loan the status derivation needs.
type Parametros struct {
	Estado         string
	FrecuenciaPago string
	TotalCuotas    int
	CuotasPagadas  int
	FechaInicio    time.Time
	AprobadoPor    *uuid.UUID
}

// EstadoDerivado recomputes the loan status as of now. It must be evaluated on
// every read: "atrasado" depends on wall-clock time, so a stored value would go
// stale. Precedence: completado, then the persisted pendiente/rechazado, then
// atrasado vs activo by due date.
func EstadoDerivado(p Parametros, now time.Time) string {
	if p.CuotasPagadas >= p.TotalCuotas && p.TotalCuotas > 0 {
		return EstadoCompletado
	}
	switch p.Estado {
	case EstadoPendiente, EstadoRechazado, EstadoCompletado:
		return p.Estado
	}
	venc, err := ProximoVencimiento(p.FechaInicio, p.FrecuenciaPago, p.CuotasPagadas)
	if err != nil {
		return p.Estado
	}
	if now.After(venc) {
		return EstadoAtrasado
	}
	return EstadoActivo
}

// DiasAtraso returns how many whole days the next cuota is overdue; 0 when the
// loan is current or not activo.
func DiasAtraso(p Parametros, now time.Time) int {
	if EstadoDerivado(p, now) != EstadoAtrasado {
		return 0
	}
	venc, err := ProximoVencimiento(p.FechaInicio, p.FrecuenciaPago, p.CuotasPagadas)
	if err != nil {
		return 0
	}
	return int(now.Sub(venc).Hours() / 24)
}
