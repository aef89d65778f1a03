package repository

import (
	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/store"
)

// indexCore wraps one ordered map holding composite keys mapped to nothing.
// Every index repository embeds it; absence is an empty result, never an error.
type indexCore struct {
	db *store.Map
}

func newIndexCore() indexCore {
	return indexCore{db: store.NewMap()}
}

func (c indexCore) exists(key []byte) bool {
	return c.db.Has(key)
}

func (c indexCore) insert(key []byte) {
	c.db.Set(key, nil)
}

func (c indexCore) remove(key []byte) bool {
	return c.db.Delete(key)
}

// scanIDs performs an inclusive range scan projecting out the trailing
// request id segment of each matching key.
func (c indexCore) scanIDs(lower, upper []byte) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{})
	c.db.AscendRange(lower, upper, func(key, _ []byte) bool {
		if id, ok := store.IDFromSuffix(key); ok {
			ids[id] = struct{}{}
		}
		return true
	})
	return ids
}

func (c *indexCore) clear() {
	c.db = store.NewMap()
}
