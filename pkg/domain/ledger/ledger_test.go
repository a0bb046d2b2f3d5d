package ledger

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

func newLedger(t *testing.T, capacity entities.Quantity) *Ledger {
	t.Helper()
	l, err := New("test", capacity)
	require.NoError(t, err)
	return l
}

func sum(snapshot map[entities.ProductID]entities.Quantity) entities.Quantity {
	var total entities.Quantity
	for _, qty := range snapshot {
		total += qty
	}
	return total
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := New("bad", 0)
	assert.EqualError(t, err, "ledger capacity must be positive, got 0")
	_, err = New("bad", -1)
	assert.Error(t, err)
}

func TestLedger_StoreCapacityScenario(t *testing.T) {
	l := newLedger(t, 100)

	require.NoError(t, l.Store("p1", 60))
	err := l.Store("p1", 50)
	require.ErrorIs(t, err, entities.ErrCapacityExceeded)

	assert.Equal(t, entities.Quantity(60), l.Quantity("p1"))
	assert.Equal(t, entities.Quantity(60), l.TotalQuantity())
	assert.Equal(t, entities.Quantity(40), l.Available())

	require.NoError(t, l.Store("p2", 40))
	assert.Equal(t, entities.Quantity(100), l.TotalQuantity())
	assert.ErrorIs(t, l.Store("p3", 1), entities.ErrCapacityExceeded)
}

func TestLedger_StoreCapacityEdges(t *testing.T) {
	tests := []struct {
		name     string
		capacity entities.Quantity
		held     entities.Quantity
		store    entities.Quantity
		wantErr  error
	}{
		{"fills exactly", 100, 60, 40, nil},
		{"one over", 100, 60, 41, entities.ErrCapacityExceeded},
		{"max quantity into partial ledger", 100, 60, math.MaxInt64, entities.ErrCapacityExceeded},
		{"max quantity into empty ledger", 100, 0, math.MaxInt64, entities.ErrCapacityExceeded},
		{"near max into near max", math.MaxInt64, math.MaxInt64 - 1, math.MaxInt64 - 1, entities.ErrCapacityExceeded},
		{"max capacity fills exactly", math.MaxInt64, 1, math.MaxInt64 - 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, tt.capacity)
			if tt.held > 0 {
				require.NoError(t, l.Store("p1", tt.held))
			}

			err := l.Store("p2", tt.store)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.held, l.TotalQuantity())
				assert.Zero(t, l.Quantity("p2"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, l.TotalQuantity())
			assert.Equal(t, tt.capacity, sum(l.Snapshot()))
			assert.Zero(t, l.Available())
		})
	}
}

func TestLedger_Errors(t *testing.T) {
	l := newLedger(t, 10)
	require.NoError(t, l.Store("p1", 5))

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"store zero", func() error { return l.Store("p1", 0) }, entities.ErrInvalidQuantity},
		{"store negative", func() error { return l.Store("p1", -2) }, entities.ErrInvalidQuantity},
		{"retrieve zero", func() error { return l.Retrieve("p1", 0) }, entities.ErrInvalidQuantity},
		{"retrieve unknown", func() error { return l.Retrieve("nope", 1) }, entities.ErrProductNotFound},
		{"retrieve too many", func() error { return l.Retrieve("p1", 6) }, entities.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), tt.want)
			assert.Equal(t, map[entities.ProductID]entities.Quantity{"p1": 5}, l.Snapshot())
		})
	}
}

func TestLedger_RetrieveRemovesEmptyEntries(t *testing.T) {
	l := newLedger(t, 10)
	require.NoError(t, l.Store("p1", 3))
	require.NoError(t, l.Retrieve("p1", 3))

	assert.Empty(t, l.Snapshot())
	assert.Equal(t, entities.Quantity(0), l.TotalQuantity())
	assert.ErrorIs(t, l.Retrieve("p1", 1), entities.ErrProductNotFound)
}

func TestLedger_StoreRetrieveRoundTrip(t *testing.T) {
	l := newLedger(t, 50)
	require.NoError(t, l.Store("a", 10))
	require.NoError(t, l.Store("b", 7))
	before := l.Snapshot()

	for _, id := range []entities.ProductID{"a", "c"} {
		require.NoError(t, l.Store(id, 12))
		require.NoError(t, l.Retrieve(id, 12))
		assert.Equal(t, before, l.Snapshot())
	}
}

func TestLedger_RandomOperationsKeepTotals(t *testing.T) {
	l := newLedger(t, 200)
	rng := rand.New(rand.NewSource(7))
	products := []entities.ProductID{"a", "b", "c", "d"}

	for i := 0; i < 2000; i++ {
		id := products[rng.Intn(len(products))]
		qty := entities.Quantity(rng.Intn(30) - 2)
		if rng.Intn(2) == 0 {
			_ = l.Store(id, qty)
		} else {
			_ = l.Retrieve(id, qty)
		}

		snap := l.Snapshot()
		total := l.TotalQuantity()
		require.Equal(t, sum(snap), total)
		require.LessOrEqual(t, total, l.Capacity())
		for pid, held := range snap {
			require.Positive(t, int64(held), "entry %s", pid)
		}
	}
}

func TestLedger_ConcurrentStoreRetrieve(t *testing.T) {
	l := newLedger(t, 1000)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if err := l.Store("p", 1); err == nil {
					_ = l.Retrieve("p", 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, entities.Quantity(0), l.TotalQuantity())
	assert.Empty(t, l.Snapshot())
}

func TestSession_Remove(t *testing.T) {
	l := newLedger(t, 20)
	require.NoError(t, l.Store("a", 4))
	require.NoError(t, l.Store("b", 6))

	err := l.Update(func(s *Session) error {
		assert.Equal(t, []entities.ProductID{"a", "b"}, s.ProductIDs())
		removed, err := s.Remove("b")
		require.NoError(t, err)
		assert.Equal(t, entities.Quantity(6), removed)
		_, err = s.Remove("b")
		assert.ErrorIs(t, err, entities.ErrProductNotFound)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(4), l.TotalQuantity())
}

func TestLockPair_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	a := newLedger(t, 1000)
	b := newLedger(t, 1000)
	require.NoError(t, a.Store("p", 500))
	require.NoError(t, b.Store("p", 500))

	move := func(src, dst *Ledger) {
		_ = LockPair(src, dst, func(s, d *Session) error {
			if err := s.Retrieve("p", 1); err != nil {
				return err
			}
			return d.Store("p", 1)
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				move(a, b)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				move(b, a)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, entities.Quantity(1000), a.TotalQuantity()+b.TotalQuantity())
}

func TestLockPair_SameLedger(t *testing.T) {
	l := newLedger(t, 10)
	require.NoError(t, l.Store("p", 2))

	err := LockPair(l, l, func(s, d *Session) error {
		assert.Same(t, s, d)
		return nil
	})
	require.NoError(t, err)
}
