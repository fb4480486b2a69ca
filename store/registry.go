// Package store holds the registry of chunk-store implementations
// and helpers that work across them.
package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobg/bzz"
)

// Factory creates a store from its configuration.
type Factory func(context.Context, map[string]interface{}) (bzz.Store, error)

var registry = make(map[string]Factory)

// Register makes a store type available to Create under the given key.
// Store packages call it from their init functions.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create creates a store of the type registered under key.
func Create(ctx context.Context, key string, conf map[string]interface{}) (bzz.Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// Types lists the registered store types in sorted order.
func Types() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
