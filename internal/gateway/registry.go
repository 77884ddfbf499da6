package gateway

import "strings"

type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	registry := &Registry{gateways: map[string]Gateway{}}
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		id := strings.ToLower(strings.TrimSpace(gw.ID()))
		if id == "" {
			continue
		}
		registry.gateways[id] = gw
	}
	return registry
}

func (r *Registry) Exists(id string) bool {
	if r == nil {
		return false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	_, ok := r.gateways[id]
	return ok
}

func (r *Registry) Resolve(id string) (Gateway, error) {
	if r == nil {
		return nil, ErrGatewayNotFound
	}
	id = strings.ToLower(strings.TrimSpace(id))
	gw, ok := r.gateways[id]
	if !ok {
		return nil, ErrGatewayNotFound
	}
	return gw, nil
}
