package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPurgeExpiredLimpiaVentanasVencidas(t *testing.T) {
	ipMapMu.Lock()
	apiRateMapMu.Lock()
	ipMap = make(map[string]*ipEntry)
	apiRateMap = make(map[string]*rateEntry)
	apiRateMapMu.Unlock()
	ipMapMu.Unlock()

	now := time.Now()

	ipMapMu.Lock()
	ipMap["10.0.0.1"] = &ipEntry{count: 5, windowEnd: now.Add(-time.Minute)}
	ipMap["10.0.0.2"] = &ipEntry{count: 3, windowEnd: now.Add(time.Minute)}
	ipMapMu.Unlock()

	apiRateMapMu.Lock()
	apiRateMap["10.0.0.1"] = &rateEntry{count: 900, windowEnd: now.Add(-time.Hour)}
	apiRateMap["10.0.0.3"] = &rateEntry{count: 12, windowEnd: now.Add(30 * time.Second)}
	apiRateMapMu.Unlock()

	purgedLogin, purgedAPI := purgeExpired(now)

	assert.Equal(t, 1, purgedLogin)
	assert.Equal(t, 1, purgedAPI)

	ipMapMu.Lock()
	_, vencida := ipMap["10.0.0.1"]
	_, viva := ipMap["10.0.0.2"]
	ipMapMu.Unlock()
	assert.False(t, vencida, "la entrada vencida debe eliminarse")
	assert.True(t, viva, "la entrada con ventana abierta debe sobrevivir")

	apiRateMapMu.Lock()
	_, vencida = apiRateMap["10.0.0.1"]
	_, viva = apiRateMap["10.0.0.3"]
	apiRateMapMu.Unlock()
	assert.False(t, vencida)
	assert.True(t, viva)
}

func TestPurgeExpiredSinVencidasNoTocaNada(t *testing.T) {
	ipMapMu.Lock()
	ipMap = map[string]*ipEntry{
		"192.168.1.1": {count: 1, windowEnd: time.Now().Add(time.Minute)},
	}
	ipMapMu.Unlock()

	apiRateMapMu.Lock()
	apiRateMap = make(map[string]*rateEntry)
	apiRateMapMu.Unlock()

	purgedLogin, purgedAPI := purgeExpired(time.Now())

	assert.Zero(t, purgedLogin)
	assert.Zero(t, purgedAPI)

	ipMapMu.Lock()
	assert.Len(t, ipMap, 1)
	ipMapMu.Unlock()
}
