// Package parser provides string interning for log parsing optimization.
// A 50K-line access log typically carries a few hundred distinct client
// addresses, so frequency-table keys are pooled instead of pinning the
// line buffers they were sliced from.
package parser

import (
	"strings"
	"sync"
)

// StringIntern provides thread-safe string interning.
// Interning ensures that equal strings share the same memory address,
// and that pooled strings do not retain the larger line they came from.
type StringIntern struct {
	mu   sync.RWMutex
	pool map[string]string
}

// NewStringIntern creates a new string interner.
func NewStringIntern() *StringIntern {
	return &StringIntern{
		pool: make(map[string]string, 1024),
	}
}

// MaxInternPoolSize limits the intern pool to prevent unbounded memory growth.
// Input with more distinct values than this stops being interned.
const MaxInternPoolSize = 500000

// Intern returns the canonical version of the string.
// If the string already exists in the pool, returns the pooled version.
// Otherwise, stores and returns a detached copy.
// If the pool has reached MaxInternPoolSize, returns the string without storing.
func (si *StringIntern) Intern(s string) string {
	si.mu.RLock()
	if pooled, ok := si.pool[s]; ok {
		si.mu.RUnlock()
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		si.mu.RUnlock()
		return s
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()
	// Double-check after acquiring write lock
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	c := strings.Clone(s)
	si.pool[c] = c
	return c
}

// Len returns the number of unique strings in the pool.
func (si *StringIntern) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.pool)
}

// Clear removes all interned strings.
func (si *StringIntern) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.pool = make(map[string]string, 1024)
}
