package update

import (
	"slices"
	"sync"
)

// Registry holds the update policy of each data domain.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
	}
}

// Register sets the policy for a domain, replacing any earlier one.
// This should be called during startup for each domain that accepts updates.
func (r *Registry) Register(domain string, policy Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[domain] = policy
}

// Policy returns the policy registered for domain, or DefaultPolicy.
func (r *Registry) Policy(domain string) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[domain]; ok {
		return p
	}
	return DefaultPolicy
}

// Has returns true if a policy was registered for domain.
func (r *Registry) Has(domain string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.policies[domain]
	return ok
}

// Domains returns all registered domains, sorted.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	domains := make([]string, 0, len(r.policies))
	for d := range r.policies {
		domains = append(domains, d)
	}
	slices.Sort(domains)
	return domains
}
