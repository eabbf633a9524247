package providers

import (
	"fmt"
	"time"

	domainErrors "github.com/ankunda/payflow/internal/domain/errors"
	"github.com/sony/gobreaker/v2"
)

// Registry routes provider names to adapters. It is constructed explicitly
// at startup and injected into the service; an unknown name is a
// configuration error, never a crash.
type Registry struct {
	providers       map[string]Provider
	circuitBreakers map[string]*gobreaker.CircuitBreaker[*Result]
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(providersList ...Provider) *Registry {
	r := &Registry{
		providers:       make(map[string]Provider),
		circuitBreakers: make(map[string]*gobreaker.CircuitBreaker[*Result]),
	}
	for _, p := range providersList {
		r.Register(p)
	}
	return r
}

// Register adds a provider and wraps it with a circuit breaker.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
	r.circuitBreakers[p.Name()] = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
}

// Get resolves a provider and its circuit breaker by name.
func (r *Registry) Get(name string) (Provider, *gobreaker.CircuitBreaker[*Result], error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown provider %q: %w", name, domainErrors.ErrProviderNotFound)
	}
	return p, r.circuitBreakers[name], nil
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
