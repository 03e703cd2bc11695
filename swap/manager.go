package swap

import (
	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// Manager is an immutable registry of swappers, in registration order.
type Manager struct {
	swappers []Swapper
}

func NewManager(swappers ...Swapper) *Manager {
	return &Manager{swappers: append([]Swapper{}, swappers...)}
}

// ByType finds a registered swapper by identifier.
func (m *Manager) ByType(id SwapperIdentifier) (Swapper, error) {
	for _, swapper := range m.swappers {
		if swapper.GetType() == id {
			return swapper, nil
		}
	}
	return nil, errors.Errorf(errors.Configuration, "no swapper registered for %q", id)
}

// BestForPair resolves the first registered swapper able to trade the pair.
func (m *Manager) BestForPair(sellAssetId ck.AssetId, buyAssetId ck.AssetId) (Swapper, error) {
	for _, swapper := range m.swappers {
		buyable := swapper.FilterBuyAssetsBySellAssetId([]ck.AssetId{buyAssetId}, sellAssetId)
		if len(buyable) > 0 {
			return swapper, nil
		}
	}
	return nil, errors.Errorf(errors.UnsupportedPair,
		"no swapper supports selling %s for %s", sellAssetId, buyAssetId)
}

// Swappers lists the registry in registration order.
func (m *Manager) Swappers() []Swapper {
	return append([]Swapper{}, m.swappers...)
}
