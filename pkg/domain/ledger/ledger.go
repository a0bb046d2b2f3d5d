// Package ledger provides the capacity-bounded stock container owned by each
// warehouse, distributor and store.
//
// Every mutation runs inside the ledger's mutex. Operations spanning two
// ledgers go through LockPair, which always acquires the locks in ascending
// ledger id order so opposite-direction transfers cannot deadlock.
package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/supplychain/pkg/domain/entities"
)

// Ledger maps product ids to held quantities under a fixed capacity.
// The running total is maintained on every mutation.
type Ledger struct {
	id       uuid.UUID
	name     string
	capacity entities.Quantity

	mu    sync.Mutex
	stock map[entities.ProductID]entities.Quantity
	total entities.Quantity
}

// New creates an empty ledger
func New(name string, capacity entities.Quantity) (*Ledger, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ledger capacity must be positive, got %d", capacity)
	}
	return &Ledger{
		id:       uuid.New(),
		name:     name,
		capacity: capacity,
		stock:    make(map[entities.ProductID]entities.Quantity),
	}, nil
}

// ID returns the ledger identity used for lock ordering
func (l *Ledger) ID() uuid.UUID { return l.id }

// Name returns the display name given at construction
func (l *Ledger) Name() string { return l.name }

// Capacity returns the maximum total quantity the ledger may hold
func (l *Ledger) Capacity() entities.Quantity { return l.capacity }

// Store adds quantity units of a product
func (l *Ledger) Store(productID entities.ProductID, quantity entities.Quantity) error {
	return l.Update(func(s *Session) error {
		return s.Store(productID, quantity)
	})
}

// Retrieve removes quantity units of a product
func (l *Ledger) Retrieve(productID entities.ProductID, quantity entities.Quantity) error {
	return l.Update(func(s *Session) error {
		return s.Retrieve(productID, quantity)
	})
}

// TotalQuantity returns the sum of all held quantities
func (l *Ledger) TotalQuantity() entities.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Available returns the remaining capacity
func (l *Ledger) Available() entities.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity - l.total
}

// Quantity returns the held quantity of a product, zero when absent
func (l *Ledger) Quantity(productID entities.ProductID) entities.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[productID]
}

// Snapshot returns a copy of the product to quantity mapping
func (l *Ledger) Snapshot() map[entities.ProductID]entities.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// Update runs fn with the ledger locked. The session is only valid inside fn.
func (l *Ledger) Update(fn func(s *Session) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&Session{ledger: l})
}

// LockPair runs fn with both ledgers locked. Locks are taken in ascending id
// order regardless of argument order; when a and b are the same ledger it is
// locked once and both sessions refer to it.
func LockPair(a, b *Ledger, fn func(sa, sb *Session) error) error {
	if a == b {
		return a.Update(func(s *Session) error {
			return fn(s, s)
		})
	}

	first, second := a, b
	if bytes.Compare(b.id[:], a.id[:]) < 0 {
		first, second = b, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	return fn(&Session{ledger: a}, &Session{ledger: b})
}

func (l *Ledger) snapshot() map[entities.ProductID]entities.Quantity {
	out := make(map[entities.ProductID]entities.Quantity, len(l.stock))
	for id, qty := range l.stock {
		out[id] = qty
	}
	return out
}

// Session is a view of a ledger whose lock is held by the caller
type Session struct {
	ledger *Ledger
}

// Ledger returns the underlying ledger
func (s *Session) Ledger() *Ledger { return s.ledger }

// Store increments or creates the entry for productID
func (s *Session) Store(productID entities.ProductID, quantity entities.Quantity) error {
	l := s.ledger
	if quantity <= 0 {
		return fmt.Errorf("%w: cannot store %d units of %s", entities.ErrInvalidQuantity, quantity, productID)
	}
	if quantity > l.capacity-l.total {
		return fmt.Errorf("%w: ledger %s holds %d of %d, cannot store %d more",
			entities.ErrCapacityExceeded, l.name, l.total, l.capacity, quantity)
	}
	l.stock[productID] += quantity
	l.total += quantity
	return nil
}

// Retrieve decrements the entry for productID, removing it when it reaches zero
func (s *Session) Retrieve(productID entities.ProductID, quantity entities.Quantity) error {
	l := s.ledger
	if quantity <= 0 {
		return fmt.Errorf("%w: cannot retrieve %d units of %s", entities.ErrInvalidQuantity, quantity, productID)
	}
	held, ok := l.stock[productID]
	if !ok {
		return fmt.Errorf("%w: %s in ledger %s", entities.ErrProductNotFound, productID, l.name)
	}
	if quantity > held {
		return fmt.Errorf("%w: ledger %s holds %d of %s, requested %d",
			entities.ErrInsufficientStock, l.name, held, productID, quantity)
	}
	if held == quantity {
		delete(l.stock, productID)
	} else {
		l.stock[productID] = held - quantity
	}
	l.total -= quantity
	return nil
}

// Remove drops the whole entry for productID and returns the removed quantity
func (s *Session) Remove(productID entities.ProductID) (entities.Quantity, error) {
	l := s.ledger
	held, ok := l.stock[productID]
	if !ok {
		return 0, fmt.Errorf("%w: %s in ledger %s", entities.ErrProductNotFound, productID, l.name)
	}
	delete(l.stock, productID)
	l.total -= held
	return held, nil
}

func (s *Session) TotalQuantity() entities.Quantity { return s.ledger.total }

func (s *Session) Capacity() entities.Quantity { return s.ledger.capacity }

func (s *Session) Quantity(productID entities.ProductID) entities.Quantity {
	return s.ledger.stock[productID]
}

// ProductIDs returns the held product ids in sorted order
func (s *Session) ProductIDs() []entities.ProductID {
	ids := make([]entities.ProductID, 0, len(s.ledger.stock))
	for id := range s.ledger.stock {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns a copy of the product to quantity mapping
func (s *Session) Snapshot() map[entities.ProductID]entities.Quantity {
	return s.ledger.snapshot()
}
