package session

import (
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/comp-calculator/pkg/finance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil, time.Hour)
	id := NewID()
	require.True(t, ValidID(id))

	_, ok := store.Get(id)
	assert.False(t, ok)

	rates := finance.TaxRates{Federal: 32, State: 9.3, AMT: 28}
	store.Put(id, rates)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, rates, got)

	store.Put(id, finance.TaxRates{Federal: 35})
	got, _ = store.Get(id)
	assert.Equal(t, 35.0, got.Federal)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(nil, time.Minute)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	store.Put("idle", finance.TaxRates{Federal: 10})
	clock = clock.Add(2 * time.Minute)

	_, ok := store.Get("idle")
	assert.False(t, ok)

	store.Put("fresh", finance.TaxRates{Federal: 20})
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(nil, 0)
	ids := []string{NewID(), NewID(), NewID()}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ids[i%len(ids)]
			store.Put(id, finance.TaxRates{Federal: float64(i)})
			store.Get(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(ids), store.Len())
}

func TestValidID(t *testing.T) {
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("not-a-session"))
}
