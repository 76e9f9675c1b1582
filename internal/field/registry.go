package field

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/popcorn/internal/dynamo"
)

var (
	mu       sync.RWMutex
	registry = map[string]func() dynamo.Field{
		"popcorn":      func() dynamo.Field { return NewPopcorn() },
		"popcorn_fast": func() dynamo.Field { return NewFastPopcorn() },
		"zero":         func() dynamo.Field { return Zero{} },
	}
)

// Register makes a field constructor available by name. Registering an
// existing name replaces it.
func Register(name string, ctor func() dynamo.Field) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// New builds the field registered under name.
func New(name string) (dynamo.Field, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", dynamo.ErrUnknownField, name, Names())
	}
	return ctor(), nil
}

// Names lists registered fields in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Configure applies named parameters to f. Fields without parameters
// accept only an empty set.
func Configure(f dynamo.Field, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	c, ok := f.(dynamo.Configurable)
	if !ok {
		return &dynamo.ConfigError{Field: "field.params", Reason: "field takes no parameters"}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.SetParam(k, params[k]); err != nil {
			return err
		}
	}
	return nil
}
