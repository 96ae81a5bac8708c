package amortizacion

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name    string
		monto   string
		interes string
		want    string
		wantErr bool
	}{
		{"diez por ciento", "1000", "10", "1100.00", false},
		{"interes cero", "500", "0", "500.00", false},
		{"redondeo half-up", "333.33", "10", "366.66", false},
		{"monto cero", "0", "10", "", true},
		{"monto negativo", "-5", "10", "", true},
		{"interes negativo", "1000", "-1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Total(d(tt.monto), d(tt.interes))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCuota(t *testing.T) {
	// 1100 / 30 = 36.666… → 36.67 half-up
	cuota, err := Cuota(d("1100.00"), 30)
	require.NoError(t, err)
	assert.Equal(t, "36.67", cuota.StringFixed(2))

	_, err = Cuota(d("1100.00"), 0)
	assert.Error(t, err)
	_, err = Cuota(d("1100.00"), -3)
	assert.Error(t, err)
}

func TestCronogramaFechas(t *testing.T) {
	inicio := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	fechas, err := Cronograma(inicio, FrecuenciaDiaria, 30)
	require.NoError(t, err)
	require.Len(t, fechas, 30)
	assert.Equal(t, inicio.AddDate(0, 0, 1), fechas[0])
	assert.Equal(t, inicio.AddDate(0, 0, 30), fechas[29])

	fechas, err = Cronograma(inicio, FrecuenciaQuincenal, 4)
	require.NoError(t, err)
	assert.Equal(t, inicio.AddDate(0, 0, 15), fechas[0])
	assert.Equal(t, inicio.AddDate(0, 0, 60), fechas[3])

	_, err = Cronograma(inicio, "bimestral", 4)
	assert.Error(t, err)
}

// The derivation is pure: calling it twice with the same inputs must yield
// byte-identical schedules.
func TestCronogramaDeterminista(t *testing.T) {
	inicio := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	a, err := CronogramaMontos(inicio, FrecuenciaSemanal, 12, d("1100.00"), 3)
	require.NoError(t, err)
	b, err := CronogramaMontos(inicio, FrecuenciaSemanal, 12, d("1100.00"), 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// The last cuota absorbs the rounding remainder: the schedule always sums to
// exactly montoTotal, and no cuota strays more than a centimo from the even
// amount.
func TestCronogramaMontosSumaExacta(t *testing.T) {
	casos := []struct {
		montoTotal string
		cuotas     int
	}{
		{"1100.00", 30},
		{"1000.00", 3},
		{"999.99", 7},
		{"50.00", 1},
		{"77.77", 13},
	}
	for _, c := range casos {
		filas, err := CronogramaMontos(time.Now(), FrecuenciaDiaria, c.cuotas, d(c.montoTotal), 0)
		require.NoError(t, err)
		require.Len(t, filas, c.cuotas)

		suma := decimal.Zero
		for _, f := range filas {
			suma = suma.Add(f.Monto)
		}
		assert.True(t, suma.Equal(d(c.montoTotal)), "%s/%d: suma %s", c.montoTotal, c.cuotas, suma)

		even := filas[0].Monto
		diff := filas[c.cuotas-1].Monto.Sub(even).Abs()
		centimo := d("0.01").Mul(decimal.NewFromInt(int64(c.cuotas)))
		assert.True(t, diff.LessThanOrEqual(centimo), "%s/%d: ultima cuota %s vs %s", c.montoTotal, c.cuotas, filas[c.cuotas-1].Monto, even)
	}
}

func TestCronogramaMontosMarcaPagadas(t *testing.T) {
	filas, err := CronogramaMontos(time.Now(), FrecuenciaMensual, 6, d("600.00"), 2)
	require.NoError(t, err)
	assert.True(t, filas[0].Pagada)
	assert.True(t, filas[1].Pagada)
	assert.False(t, filas[2].Pagada)
}

func TestProximoVencimiento(t *testing.T) {
	inicio := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Sin pagos: un periodo completo despues del inicio.
	venc, err := ProximoVencimiento(inicio, FrecuenciaSemanal, 0)
	require.NoError(t, err)
	assert.Equal(t, inicio.AddDate(0, 0, 7), venc)

	// Con 3 cuotas pagadas la siguiente es la cuarta.
	venc, err = ProximoVencimiento(inicio, FrecuenciaSemanal, 3)
	require.NoError(t, err)
	assert.Equal(t, inicio.AddDate(0, 0, 28), venc)

	_, err = ProximoVencimiento(inicio, FrecuenciaSemanal, -1)
	assert.Error(t, err)
}

func TestEstadoDerivado(t *testing.T) {
	inicio := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	base := Parametros{
		Estado:         EstadoActivo,
		FrecuenciaPago: FrecuenciaDiaria,
		TotalCuotas:    30,
		CuotasPagadas:  0,
		FechaInicio:    inicio,
	}

	t.Run("activo al dia", func(t *testing.T) {
		// Primera cuota vence el dia 1; a mediodia del dia 1 sigue al dia.
		now := inicio.Add(12 * time.Hour)
		assert.Equal(t, EstadoActivo, EstadoDerivado(base, now))
	})

	t.Run("atrasado al vencer", func(t *testing.T) {
		now := inicio.AddDate(0, 0, 2)
		assert.Equal(t, EstadoAtrasado, EstadoDerivado(base, now))
		assert.Equal(t, 1, DiasAtraso(base, now))
	})

	t.Run("pago al dia vuelve a activo", func(t *testing.T) {
		p := base
		p.CuotasPagadas = 2
		now := inicio.AddDate(0, 0, 2)
		assert.Equal(t, EstadoActivo, EstadoDerivado(p, now))
		assert.Equal(t, 0, DiasAtraso(p, now))
	})

	t.Run("completado precede a todo", func(t *testing.T) {
		p := base
		p.CuotasPagadas = 30
		now := inicio.AddDate(1, 0, 0)
		assert.Equal(t, EstadoCompletado, EstadoDerivado(p, now))
	})

	t.Run("pendiente y rechazado no derivan", func(t *testing.T) {
		now := inicio.AddDate(0, 1, 0)
		p := base
		p.Estado = EstadoPendiente
		assert.Equal(t, EstadoPendiente, EstadoDerivado(p, now))
		p.Estado = EstadoRechazado
		assert.Equal(t, EstadoRechazado, EstadoDerivado(p, now))
	})

	t.Run("idempotente", func(t *testing.T) {
		now := inicio.AddDate(0, 0, 10)
		first := EstadoDerivado(base, now)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, EstadoDerivado(base, now))
		}
	})
}
