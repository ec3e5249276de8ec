package service

import (
	"sync"

	"github.com/auctify/settlement-engine/internal/domain/apperr"
)

// SaleLocks serialises batch operations per sale. Acquisition never waits: a
// sale that is busy is reported as a concurrency conflict the caller may retry.
type SaleLocks struct {
	mu   sync.Mutex
	held map[int64]string
}

// NewSaleLocks creates an empty lock table
func NewSaleLocks() *SaleLocks {
	return &SaleLocks{held: make(map[int64]string)}
}

// TryLock takes the lock of a sale for the named operation and returns its release func
func (l *SaleLocks) TryLock(saleID int64, operation string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, busy := l.held[saleID]; busy {
		return nil, apperr.ConcurrencyConflict(apperr.Sale(saleID), "%s already running (requested %s)", holder, operation)
	}
	l.held[saleID] = operation

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, saleID)
			l.mu.Unlock()
		})
	}, nil
}

// KeyedMutex is a blocking mutex per key
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the key is free and returns its unlock func
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
