package store

import (
	"context"
	"encoding/json"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// TradeRepository persists the whole trade collection as one JSON array
// under a single storage key. Saves always overwrite the full collection.
type TradeRepository struct {
	storage Storage
	key     string
}

// NewTradeRepository creates a repository for the trade collection.
func NewTradeRepository(storage Storage, key string) *TradeRepository {
	return &TradeRepository{storage: storage, key: key}
}

// Key returns the storage key of the collection.
func (r *TradeRepository) Key() string {
	return r.key
}

// Load returns the persisted trades, newest first. A missing key yields an
// empty collection. A value that does not decode yields an empty collection
// and an error matching errors.ErrCorruptData.
func (r *TradeRepository) Load(ctx context.Context) ([]models.Trade, error) {
	raw, ok, err := r.storage.Get(ctx, r.key)
	if err != nil {
		return []models.Trade{}, err
	}
	if !ok {
		return []models.Trade{}, nil
	}

	var trades []models.Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return []models.Trade{}, apperrors.NewDataError(r.key, "malformed trade collection", err)
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	seen := make(map[string]bool, len(trades))
	for _, t := range trades {
		if seen[t.ID] {
			return []models.Trade{}, apperrors.NewDataError(r.key, "duplicate trade id "+t.ID, nil)
		}
		seen[t.ID] = true
	}
	return trades, nil
}

// Save overwrites the persisted collection.
func (r *TradeRepository) Save(ctx context.Context, trades []models.Trade) error {
	if trades == nil {
		trades = []models.Trade{}
	}
	data, err := json.Marshal(trades)
	if err != nil {
		return apperrors.NewStorageError("encode", r.key, err)
	}
	return r.storage.Set(ctx, r.key, data)
}

// Raw returns the undecoded stored value.
func (r *TradeRepository) Raw(ctx context.Context) ([]byte, bool, error) {
	return r.storage.Get(ctx, r.key)
}

// ChecklistRepository persists the pre-trade checklist under its own key.
type ChecklistRepository struct {
	storage Storage
	key     string
}

// NewChecklistRepository creates a repository for the checklist.
func NewChecklistRepository(storage Storage, key string) *ChecklistRepository {
	return &ChecklistRepository{storage: storage, key: key}
}

// Load returns the persisted checklist, or an unchecked one if none is stored.
func (r *ChecklistRepository) Load(ctx context.Context) (models.Checklist, error) {
	raw, ok, err := r.storage.Get(ctx, r.key)
	if err != nil || !ok {
		return models.Checklist{}, err
	}

	var flags models.RulesFollowed
	if err := json.Unmarshal(raw, &flags); err != nil {
		return models.Checklist{}, apperrors.NewDataError(r.key, "malformed checklist", err)
	}
	return models.NewChecklist(flags), nil
}

// Save overwrites the persisted checklist.
func (r *ChecklistRepository) Save(ctx context.Context, c models.Checklist) error {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return apperrors.NewStorageError("encode", r.key, err)
	}
	return r.storage.Set(ctx, r.key, data)
}
