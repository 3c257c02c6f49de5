// Package singleflight merges concurrent calls for the same key so only
// one executes; the rest wait and share its result.
package singleflight

import "sync"

// call is an in-flight or completed invocation.
type call struct {
	wg  sync.WaitGroup
	val interface{}
	err error
}

// Group deduplicates in-flight calls by key. The zero value is not usable;
// use New.
type Group struct {
	mu sync.Mutex
	m  map[string]*call
}

// New creates an empty Group.
func New() *Group {
	return &Group{m: make(map[string]*call)}
}

// Do executes fn, ensuring only one execution is in flight for key at a
// time. Duplicate callers block until the owner completes and receive the
// same result. The entry is removed once the owner returns, so later calls
// execute fresh.
func (g *Group) Do(key string, fn func() (interface{}, error)) (interface{}, bool, error) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, true, c.err
	}

	c := &call{}
	c.wg.Add(1)
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	g.mu.Unlock()
	c.wg.Done()

	return c.val, false, c.err
}

// Forget removes any in-flight entry for key so the next Do executes fn
// regardless of outstanding waiters.
func (g *Group) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
