package services

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pairLocks hands out one mutex per unordered pair of users. Entries are
// dropped once nobody holds or waits for them.
type pairLocks struct {
	mu    sync.Mutex
	locks map[[2]primitive.ObjectID]*pairLock
}

type pairLock struct {
	sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[[2]primitive.ObjectID]*pairLock)}
}

// lock blocks until the pair {a, b} is free and returns its unlock func.
func (p *pairLocks) lock(a, b primitive.ObjectID) func() {
	key := [2]primitive.ObjectID{a, b}
	if b.Hex() < a.Hex() {
		key = [2]primitive.ObjectID{b, a}
	}

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
