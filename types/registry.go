package types

import (
	"fmt"
	"slices"
	"sync"
)

// Type converts values of one abstract type between Go and the database.
type Type interface {
	// Name returns the abstract type name the type is registered under.
	Name() string
	// ToDatabase converts a Go value into a value a database/sql driver accepts.
	ToDatabase(value any) (any, error)
	// ToGo converts a value scanned from the database into its Go form.
	ToGo(value any) (any, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Type{}
)

func init() {
	for _, t := range []Type{
		IntegerType{name: "integer"},
		IntegerType{name: "biginteger"},
		IntegerType{name: "smallinteger"},
		IntegerType{name: "tinyinteger"},
		FloatType{name: "float"},
		DecimalType{},
		StringType{name: "string"},
		StringType{name: "text"},
		StringType{name: "char"},
		BoolType{},
		DateType{},
		DateTimeType{name: "datetime"},
		DateTimeType{name: "timestamp"},
		DateTimeType{name: "datetimefractional"},
		TimeType{},
		UUIDType{},
		JSONType{},
		BinaryType{},
	} {
		registry[t.Name()] = t
	}
}

// Map registers t under name, replacing any existing registration.
func Map(name string, t Type) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = t
}

// Build returns the type registered under name.
func Build(name string) (Type, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Names returns the registered type names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ToDatabase converts value through the type registered as typ. Values whose
// type is empty or unknown are returned unchanged; so is nil.
func ToDatabase(value any, typ string) (any, error) {
	if typ == "" || value == nil {
		return value, nil
	}
	t, ok := Build(BaseType(typ))
	if !ok {
		return value, nil
	}
	out, err := t.ToDatabase(value)
	if err != nil {
		return nil, fmt.Errorf("cast %T to %s: %w", value, typ, err)
	}
	return out, nil
}
