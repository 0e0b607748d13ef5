package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownMethod is returned when a method name is not in the catalog.
var ErrUnknownMethod = errors.New("unknown quantization method")

// Catalog holds the known quantization methods and their dependencies.
type Catalog struct {
	methods  []Method
	byName   map[string]*Method
	depOrder []string
	deps     map[string]Dependency
}

// New creates a catalog from methods and dependencies.
func New(methods []Method, deps []Dependency) *Catalog {
	c := &Catalog{
		methods: methods,
		byName:  make(map[string]*Method, len(methods)),
		deps:    make(map[string]Dependency, len(deps)),
	}
	for i := range c.methods {
		c.byName[c.methods[i].Name] = &c.methods[i]
	}
	for _, d := range deps {
		if _, ok := c.deps[d.Name]; !ok {
			c.depOrder = append(c.depOrder, d.Name)
		}
		c.deps[d.Name] = d
	}
	return c
}

// All returns every method in declaration order.
func (c *Catalog) All() []Method {
	return c.methods
}

// Get returns a method by name.
func (c *Catalog) Get(name string) (Method, error) {
	if m, ok := c.byName[name]; ok {
		return *m, nil
	}
	return Method{}, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

// ByKey returns the method bound to a menu number.
func (c *Catalog) ByKey(key string) (Method, bool) {
	for _, m := range c.methods {
		if m.Key != "" && m.Key == key {
			return m, true
		}
	}
	return Method{}, false
}

// Menu returns the methods offered in the numbered menu, ordered by key.
func (c *Catalog) Menu() []Method {
	var menu []Method
	for _, m := range c.methods {
		if m.Key != "" {
			menu = append(menu, m)
		}
	}
	sort.SliceStable(menu, func(i, j int) bool {
		if len(menu[i].Key) != len(menu[j].Key) {
			return len(menu[i].Key) < len(menu[j].Key)
		}
		return menu[i].Key < menu[j].Key
	})
	return menu
}

// Dependencies returns every declared dependency in declaration order.
func (c *Catalog) Dependencies() []Dependency {
	out := make([]Dependency, 0, len(c.depOrder))
	for _, name := range c.depOrder {
		out = append(out, c.deps[name])
	}
	return out
}

// Requirements returns the union of the dependencies the given methods need,
// in declaration order.
func (c *Catalog) Requirements(methods ...Method) []Dependency {
	need := make(map[string]bool)
	for _, m := range methods {
		for _, r := range m.Requires {
			need[r] = true
		}
	}
	var out []Dependency
	for _, name := range c.depOrder {
		if need[name] {
			out = append(out, c.deps[name])
		}
	}
	return out
}
