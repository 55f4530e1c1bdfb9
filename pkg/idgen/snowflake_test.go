package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeWorker(t *testing.T) {
	_, err := New(-1)
	assert.ErrorIs(t, err, ErrInvalidWorkerID)

	_, err = New(maxWorkerID + 1)
	assert.ErrorIs(t, err, ErrInvalidWorkerID)
}

func TestGenerateIsUniqueAcrossGoroutines(t *testing.T) {
	s, err := New(7)
	require.NoError(t, err)

	const workers, perWorker = 8, 2000
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- s.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	s, err := New(42)
	require.NoError(t, err)

	id := s.Generate()
	_, worker, _, err := Decompose(id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), worker)
}

func TestGenerateNoPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateTransactionNo(), PrefixTransaction))
	assert.True(t, strings.HasPrefix(GeneratePurchaseNo(), PrefixPurchase))
	assert.NotEqual(t, GenerateTransactionNo(), GenerateTransactionNo())
}
