// Package watchlist persists the tracked-symbol set between runs.
package watchlist

import (
	"context"

	"StockTracker/internal/model"
)

// Store loads and saves the tracked set. Order is preserved.
type Store interface {
	Load(ctx context.Context) ([]model.TrackedSymbol, error)
	Save(ctx context.Context, tracked []model.TrackedSymbol) error
	Close() error
}
