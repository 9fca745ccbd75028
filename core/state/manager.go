package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"spredd/core/types"
	"spredd/storage"
)

// Manager persists the forecast engine's ledger on a key-value store. Records
// are JSON-encoded; big-integer scalars use RLP (see scores.go).
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// getJSON decodes the stored value into out, reporting whether the key exists.
func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

// GetAccount loads the account record for an address. Missing accounts return
// nil without error, matching the engine's ensure-on-write behaviour.
func (m *Manager) GetAccount(addr common.Address) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.getJSON(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return account, nil
}

// PutAccount stores the account record for an address.
func (m *Manager) PutAccount(addr common.Address, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: account required")
	}
	return m.putJSON(accountKey(addr), account)
}
