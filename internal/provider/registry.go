package provider

import (
	"sort"

	"basegraph.app/herald/internal/model"
)

// Registry holds one Connector per configured provider.
type Registry struct {
	connectors map[model.Provider]*Connector
}

func NewRegistry(connectors ...*Connector) *Registry {
	r := &Registry{connectors: make(map[model.Provider]*Connector, len(connectors))}
	for _, c := range connectors {
		r.connectors[c.Provider()] = c
	}
	return r
}

func (r *Registry) Get(p model.Provider) (*Connector, bool) {
	c, ok := r.connectors[p]
	return c, ok
}

// All returns connectors ordered by provider name.
func (r *Registry) All() []*Connector {
	out := make([]*Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider() < out[j].Provider() })
	return out
}

func (r *Registry) Providers() []model.Provider {
	all := r.All()
	out := make([]model.Provider, len(all))
	for i, c := range all {
		out[i] = c.Provider()
	}
	return out
}
