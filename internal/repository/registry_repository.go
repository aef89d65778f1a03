package repository

import (
	"encoding/json"
	"fmt"

	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/store"
)

const (
	accountPrefix = "acct"
	userPrefix    = "user"
	groupPrefix   = "grp"
)

// RegistryRepository persists the governed entities — custody accounts, wallet
// users and user groups — on the ordered substrate. These are the targets the
// executor mutates when a request is adopted.
type RegistryRepository struct {
	db *store.Map
}

// NewRegistryRepository constructs the repository over a fresh ordered map.
func NewRegistryRepository() *RegistryRepository {
	return &RegistryRepository{db: store.NewMap()}
}

func registryKey(prefix, id string) []byte {
	key := store.AppendString(nil, prefix)
	return store.AppendString(key, id)
}

// SaveAccount inserts or replaces a custody account.
func (r *RegistryRepository) SaveAccount(account models.Account) error {
	return r.save(registryKey(accountPrefix, account.ID), account)
}

// GetAccount loads an account by id.
func (r *RegistryRepository) GetAccount(id string) (*models.Account, bool) {
	var account models.Account
	if !r.load(registryKey(accountPrefix, id), &account) {
		return nil, false
	}
	return &account, true
}

// SaveUser inserts or replaces a wallet user.
func (r *RegistryRepository) SaveUser(user models.WalletUser) error {
	return r.save(registryKey(userPrefix, user.ID), user)
}

// GetUser loads a wallet user by id.
func (r *RegistryRepository) GetUser(id string) (*models.WalletUser, bool) {
	var user models.WalletUser
	if !r.load(registryKey(userPrefix, id), &user) {
		return nil, false
	}
	return &user, true
}

// FindUserByIdentity returns the wallet user controlling the identity.
func (r *RegistryRepository) FindUserByIdentity(identity string) (*models.WalletUser, bool) {
	var found *models.WalletUser
	r.ascendPrefix(userPrefix, func(raw []byte) bool {
		var user models.WalletUser
		if err := json.Unmarshal(raw, &user); err != nil {
			return true
		}
		for _, candidate := range user.Identities {
			if candidate == identity {
				found = &user
				return false
			}
		}
		return true
	})
	return found, found != nil
}

// SaveGroup inserts or replaces a user group.
func (r *RegistryRepository) SaveGroup(group models.UserGroup) error {
	return r.save(registryKey(groupPrefix, group.ID), group)
}

// GetGroup loads a user group by id.
func (r *RegistryRepository) GetGroup(id string) (*models.UserGroup, bool) {
	var group models.UserGroup
	if !r.load(registryKey(groupPrefix, id), &group) {
		return nil, false
	}
	return &group, true
}

// RemoveGroup deletes a user group by id.
func (r *RegistryRepository) RemoveGroup(id string) bool {
	return r.db.Delete(registryKey(groupPrefix, id))
}

func (r *RegistryRepository) save(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode registry entry: %w", err)
	}
	r.db.Set(key, raw)
	return nil
}

func (r *RegistryRepository) load(key []byte, out interface{}) bool {
	raw, ok := r.db.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (r *RegistryRepository) ascendPrefix(prefix string, iter func(raw []byte) bool) {
	lower := store.AppendString(nil, prefix)
	upper := append(append([]byte(nil), lower...), 0xff)
	r.db.AscendRange(lower, upper, func(_, raw []byte) bool {
		return iter(raw)
	})
}
