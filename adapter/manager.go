package adapter

import (
	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// Manager resolves a chain identifier to its constructed adapter.  The
// registry is built once; there is no mutable registration afterwards.
type Manager struct {
	adapters map[ck.ChainIdentifier]ChainAdapter
}

// NewManager builds a registry from already-constructed adapters, keyed by
// their own reported type.
func NewManager(adapters ...ChainAdapter) *Manager {
	byChain := make(map[ck.ChainIdentifier]ChainAdapter, len(adapters))
	for _, a := range adapters {
		byChain[a.GetType()] = a
	}
	return &Manager{adapters: byChain}
}

// ByChain returns the adapter registered for the chain.
// ConfigurationError when none was registered.
func (m *Manager) ByChain(chain ck.ChainIdentifier) (ChainAdapter, error) {
	a, ok := m.adapters[chain]
	if !ok {
		return nil, errors.Errorf(errors.Configuration, "no adapter registered for chain %q", chain)
	}
	return a, nil
}

// Chains lists the registered chain identifiers.
func (m *Manager) Chains() []ck.ChainIdentifier {
	chains := make([]ck.ChainIdentifier, 0, len(m.adapters))
	for _, c := range ck.ChainIdentifierList {
		if _, ok := m.adapters[c]; ok {
			chains = append(chains, c)
		}
	}
	return chains
}
