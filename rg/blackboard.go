// Copyright 2024 The RG Authors. All rights reserved.

package rg

import (
	"fmt"
	"reflect"
	"sync"
)

// Blackboard is a type-keyed, frame-scoped map for data shared across
// passes without an explicit resource edge (camera matrices, global
// constant-buffer addresses, null descriptors). It does not
// participate in resource tracking: the compiler never looks at it.
//
// The graph's own scheduling model is single-threaded, so the mutex
// here is mostly defensive, but execute callbacks are free to spawn
// helper goroutines of their own that read the blackboard, so reads
// must stay safe for concurrent use.
type Blackboard struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

func newBlackboard() *Blackboard {
	return &Blackboard{values: make(map[reflect.Type]any)}
}

// Add stores value under its own type, replacing any previous value
// of the same type.
func Add[T any](b *Blackboard, value T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[reflect.TypeOf(value)] = value
}

// Get returns the value of type T. It panics if none was ever added:
// a missing blackboard entry is a wiring mistake the caller controls,
// not a recoverable runtime condition.
func Get[T any](b *Blackboard) T {
	v, ok := TryGet[T](b)
	if !ok {
		var zero T
		panic(fmt.Sprintf("rg: Blackboard.Get: no value of type %T registered", zero))
	}
	return v
}

// TryGet returns the value of type T and true, or the zero value and
// false if none was added.
func TryGet[T any](b *Blackboard) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var zero T
	v, ok := b.values[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	return v.(T), true
}
