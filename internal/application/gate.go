package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"leaf-doctor/internal/domain/entity"
)

// gates очереди операций по ключу. Запись живёт, пока ключ кто-то держит или ждёт.
type gates[K comparable] struct {
	mu sync.Mutex
	m  map[K]*gate
}

type gate struct {
	sem  *semaphore.Weighted
	refs int
}

func newGates[K comparable]() *gates[K] {
	return &gates[K]{m: make(map[K]*gate)}
}

// lock занимает ключ. Ожидание прерывается контекстом.
func (g *gates[K]) lock(ctx context.Context, key K) (func(), error) {
	g.mu.Lock()
	e, ok := g.m[key]
	if !ok {
		e = &gate{sem: semaphore.NewWeighted(1)}
		g.m[key] = e
	}
	e.refs++
	g.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		g.unref(key, e)
		return nil, fmt.Errorf("%w: %v", entity.ErrSessionBusy, err)
	}
	return func() {
		e.sem.Release(1)
		g.unref(key, e)
	}, nil
}

func (g *gates[K]) unref(key K, e *gate) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(g.m, key)
	}
}

func (g *gates[K]) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
