// Package modules resolves and caches lowered modules. A Cache is shared
// by every compilation in the process and lowers each module at most once.
package modules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/token"
	"github.com/funvibe/yjs/internal/typesystem"
)

var log = commonlog.GetLogger("yjs.modules")

// Entry is a lowered module.
type Entry struct {
	// Name is the canonical module name.
	Name string
	// Var is the target variable holding the module value.
	Var  string
	Type typesystem.Type
	// Code is the body of the function producing the module value.
	Code string
	// Deps are the canonical names of the modules loaded directly.
	Deps            []string
	CompilerVersion string
	// Digest identifies the document the module was lowered from.
	Digest string
	// Warnings were reported while loading the module. Every compilation
	// using the entry reports them again.
	Warnings []*diagnostics.DiagnosticError
}

// Canonical returns the identity of a module name.
func Canonical(name string) string {
	return strings.ToLower(name)
}

// BuildFunc lowers the named module within session s. It is called at
// most once per module for as long as the result stays cached.
type BuildFunc func(ctx context.Context, s *Session, name string) (*Entry, error)

type flight struct {
	owner *Session
	done  chan struct{}
	entry *Entry
	err   error
}

// Cache maps canonical module names to lowered modules.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]*flight
	// waits records the module each blocked session is waiting for.
	waits map[*Session]string
}

func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]*Entry),
		inflight: make(map[string]*flight),
		waits:    make(map[*Session]string),
	}
}

// Session is one compilation using the cache. Modules requested while a
// session is building another module are its dependencies; requesting a
// module the session is still building is a cycle. A Session must not be
// used from more than one goroutine at a time.
type Session struct {
	ID    string
	cache *Cache
	stack []string
}

// NewSession starts a compilation.
func (c *Cache) NewSession() *Session {
	return &Session{ID: uuid.NewString(), cache: c}
}

// Building returns the modules the session is currently lowering,
// outermost first.
func (s *Session) Building() []string {
	return append([]string(nil), s.stack...)
}

// Lookup returns a cached module.
func (c *Cache) Lookup(name string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Canonical(name)]
	return e, ok
}

// Put stores an already lowered module, for example one read from disk.
func (c *Cache) Put(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Canonical(e.Name)] = e
}

// Invalidate drops the named modules and every cached module depending on
// them.
func (c *Cache) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := map[string]bool{}
	for _, n := range names {
		dropped[Canonical(n)] = true
	}
	for changed := true; changed; {
		changed = false
		for key, e := range c.entries {
			if dropped[key] {
				continue
			}
			for _, d := range e.Deps {
				if dropped[d] {
					dropped[key] = true
					changed = true
					break
				}
			}
		}
	}
	for key := range dropped {
		if _, ok := c.entries[key]; ok {
			log.Debugf("invalidated %s", key)
		}
		delete(c.entries, key)
	}
}

// Clear drops every cached module.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debugf("cleared %d modules", len(c.entries))
	c.entries = make(map[string]*Entry)
}

// Get returns the named module, calling build if no other session has
// lowered it or is lowering it. Concurrent requests for the same module
// wait for the first one.
func (c *Cache) Get(ctx context.Context, s *Session, name string, tok token.Token, build BuildFunc) (*Entry, error) {
	key := Canonical(name)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e, nil
	}
	if f, ok := c.inflight[key]; ok {
		if c.deadlocks(s, f) {
			c.mu.Unlock()
			return nil, c.cycle(s, key, tok)
		}
		c.waits[s] = key
		c.mu.Unlock()

		log.Debugf("session %s waits for %s", s.ID, key)
		var err error
		select {
		case <-f.done:
		case <-ctx.Done():
			err = ctx.Err()
		}

		c.mu.Lock()
		delete(c.waits, s)
		c.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return f.entry, f.err
	}

	f := &flight{owner: s, done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	return c.lower(ctx, s, key, name, f, build)
}

// lower runs build for the in-flight entry f and publishes the result. The
// entry is released even when build panics, so waiting sessions fail
// instead of blocking.
func (c *Cache) lower(ctx context.Context, s *Session, key, name string, f *flight, build BuildFunc) (entry *Entry, err error) {
	s.stack = append(s.stack, key)
	depth := len(s.stack)
	finished := false
	defer func() {
		s.stack = s.stack[:depth-1]
		if !finished {
			err = fmt.Errorf("lowering module %s panicked", key)
		}
		c.mu.Lock()
		delete(c.inflight, key)
		if err == nil {
			c.entries[key] = entry
		}
		f.entry, f.err = entry, err
		close(f.done)
		c.mu.Unlock()
	}()

	log.Debugf("session %s lowers %s", s.ID, key)
	entry, err = build(ctx, s, name)
	finished = true
	return entry, err
}

// deadlocks reports whether s waiting for f would close a cycle in the
// wait-for graph. Must be called with c.mu held.
func (c *Cache) deadlocks(s *Session, f *flight) bool {
	seen := map[*Session]bool{}
	for owner := f.owner; !seen[owner]; {
		if owner == s {
			return true
		}
		seen[owner] = true
		key, waiting := c.waits[owner]
		if !waiting {
			return false
		}
		next, ok := c.inflight[key]
		if !ok {
			return false
		}
		owner = next.owner
	}
	return false
}

func (c *Cache) cycle(s *Session, key string, tok token.Token) error {
	path := append(s.Building(), key)
	if i := indexOf(path, key); i < len(path)-1 {
		path = path[i:]
	}
	return diagnostics.Errorf(diagnostics.ErrM002, tok, "circular module dependency: %s", strings.Join(path, " -> "))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Order returns the cached modules reachable from names, every module
// after the modules it depends on.
func (c *Cache) Order(names []string) []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Entry
	seen := map[string]bool{}
	var visit func(key string)
	visit = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		e, ok := c.entries[key]
		if !ok {
			return
		}
		for _, d := range e.Deps {
			visit(d)
		}
		out = append(out, e)
	}
	for _, n := range names {
		visit(Canonical(n))
	}
	return out
}
