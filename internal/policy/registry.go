package policy

import (
	"fmt"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Registry holds the freeze rule for every policy.
type Registry struct {
	rules map[domain.FreezePolicy]FreezeRule
}

// NewRegistry creates a registry with all default rules.
func NewRegistry() *Registry {
	return NewRegistryWithRules(
		NewNotOnDesktopRule(),
		NewMaximizedRule(),
		NewFullScreenRule(),
	)
}

// NewRegistryWithRules creates a registry with custom rules (for testing).
func NewRegistryWithRules(rules ...FreezeRule) *Registry {
	r := &Registry{
		rules: make(map[domain.FreezePolicy]FreezeRule),
	}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// Register adds a rule, replacing any rule for the same policy.
func (r *Registry) Register(rule FreezeRule) {
	r.rules[rule.ID()] = rule
}

// Get returns the rule for a policy.
func (r *Registry) Get(id domain.FreezePolicy) (FreezeRule, bool) {
	rule, ok := r.rules[id]
	return rule, ok
}

// Lookup returns the rule for a policy or an error naming it.
func (r *Registry) Lookup(id domain.FreezePolicy) (FreezeRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("no rule registered for policy: %s", id)
	}
	return rule, nil
}

// GetAll returns all registered rules in display order.
func (r *Registry) GetAll() []FreezeRule {
	result := make([]FreezeRule, 0, len(r.rules))
	for _, id := range domain.Policies {
		if rule, ok := r.rules[id]; ok {
			result = append(result, rule)
		}
	}
	return result
}

// List returns all registered policy IDs in display order.
func (r *Registry) List() []domain.FreezePolicy {
	ids := make([]domain.FreezePolicy, 0, len(r.rules))
	for _, rule := range r.GetAll() {
		ids = append(ids, rule.ID())
	}
	return ids
}
