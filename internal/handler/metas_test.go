package handler

import (
	"testing"

	"github.com/fjsv09/profinanzas-sub000/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func metaRequestValida() dto.CrearMetaRequest {
	return dto.CrearMetaRequest{
		AsesorID:      uuid.NewString(),
		Periodo:       "2026-09",
		MetaClientes:  decimal.NewFromInt(20),
		MetaCobranza:  decimal.NewFromInt(15000),
		MetaMorosidad: decimal.NewFromInt(5),
		MetaCartera:   decimal.NewFromInt(60000),
	}
}

func TestCrearMetaRequestPeriodoValido(t *testing.T) {
	req := metaRequestValida()
	assert.NoError(t, validate.Struct(req))
}

func TestCrearMetaRequestPeriodoInvalido(t *testing.T) {
	casos := []struct {
		nombre  string
		periodo string
	}{
		{"mes fuera de rango", "2026-13"},
		{"mes cero", "2026-00"},
		{"texto arbitrario", "abcdefg"},
		{"separador incorrecto", "2026/09"},
		{"sin mes", "2026"},
		{"vacio", ""},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			req := metaRequestValida()
			req.Periodo = tc.periodo
			assert.Error(t, validate.Struct(req))
		})
	}
}
