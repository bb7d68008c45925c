// Package resolver turns manifest references into absolute URLs.
package resolver

import (
	"fmt"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/eleven-am/gohls/internal/domain"
)

type cacheKey struct {
	base string
	ref  string
}

// Resolver resolves references against a base URL per RFC 3986 and memoizes
// results in a fixed-capacity LRU. The cache only short-circuits repeated
// lookups; it never changes a result.
type Resolver struct {
	cache *lru.Cache[cacheKey, string]
}

// New returns a Resolver whose memo holds up to size entries. A size below 1
// falls back to the default capacity.
func New(size int) *Resolver {
	if size < 1 {
		size = 1024
	}
	cache, _ := lru.New[cacheKey, string](size)
	return &Resolver{cache: cache}
}

// Resolve returns ref as an absolute URL. Absolute refs pass through
// unchanged; relative refs resolve against base.
func (r *Resolver) Resolve(base, ref string) (string, error) {
	key := cacheKey{base: base, ref: ref}
	if resolved, ok := r.cache.Get(key); ok {
		return resolved, nil
	}

	resolved, err := resolve(base, ref)
	if err != nil {
		return "", err
	}

	r.cache.Add(key, resolved)
	return resolved, nil
}

func resolve(base, ref string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", &domain.InvalidURLError{Base: base, Ref: ref, Err: err}
	}
	if refURL.IsAbs() {
		return ref, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", &domain.InvalidURLError{Base: base, Ref: ref, Err: err}
	}
	if !baseURL.IsAbs() {
		return "", &domain.InvalidURLError{Base: base, Ref: ref, Err: fmt.Errorf("base URL is not absolute")}
	}

	return baseURL.ResolveReference(refURL).String(), nil
}
