package seating

import (
	"context"
	"sync"
)

// Locker serializes the mutations of a classroom.
// The returned unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, classID string) (unlock func(), err error)
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker holding one mutex per classroom.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

var _ Locker = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

func (km *KeyedMutex) Lock(ctx context.Context, classID string) (func(), error) {
	km.mu.Lock()
	lk, ok := km.locks[classID]
	if !ok {
		lk = &keyedLock{sem: make(chan struct{}, 1)}
		km.locks[classID] = lk
	}
	lk.refs++
	km.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		km.release(classID, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			km.release(classID, lk)
		})
	}, nil
}

func (km *KeyedMutex) release(classID string, lk *keyedLock) {
	km.mu.Lock()
	defer km.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(km.locks, classID)
	}
}
