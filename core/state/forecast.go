package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"spredd/native/forecast"
	"spredd/storage"
)

// CurrentEpochGet returns the active epoch index, reporting whether the
// ledger has been initialised.
func (m *Manager) CurrentEpochGet() (uint64, bool, error) {
	if m == nil || m.db == nil {
		return 0, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.db.Get(currentEpochKey())
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var index uint64
	if err := rlp.DecodeBytes(data, &index); err != nil {
		return 0, false, err
	}
	return index, true, nil
}

// CurrentEpochPut stores the active epoch index.
func (m *Manager) CurrentEpochPut(index uint64) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	encoded, err := rlp.EncodeToBytes(index)
	if err != nil {
		return err
	}
	return m.db.Put(currentEpochKey(), encoded)
}

// EpochGet loads the ledger record for an epoch.
func (m *Manager) EpochGet(index uint64) (*forecast.Epoch, bool, error) {
	epoch := new(forecast.Epoch)
	ok, err := m.getJSON(epochKey(index), epoch)
	if err != nil || !ok {
		return nil, false, err
	}
	return epoch, true, nil
}

// EpochPut stores the ledger record for an epoch.
func (m *Manager) EpochPut(epoch *forecast.Epoch) error {
	if epoch == nil {
		return fmt.Errorf("state: epoch required")
	}
	return m.putJSON(epochKey(epoch.Index), epoch)
}

func (m *Manager) readBigInt(key []byte) (*big.Int, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state manager unavailable")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value := new(big.Int)
	if err := rlp.DecodeBytes(data, value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) writeBigInt(key []byte, value *big.Int) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if value == nil {
		value = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// ScoreGet loads the accumulated points for a participant in an epoch.
func (m *Manager) ScoreGet(epoch uint64, role forecast.Role, addr common.Address) (*big.Int, bool, error) {
	return m.readBigInt(scoreKey(epoch, role, addr))
}

// ScorePut stores the accumulated points for a participant in an epoch.
func (m *Manager) ScorePut(epoch uint64, role forecast.Role, addr common.Address, points *big.Int) error {
	return m.writeBigInt(scoreKey(epoch, role, addr), points)
}

// LifetimeScoreGet loads the never-resetting total for an address and role.
// Missing entries default to zero.
func (m *Manager) LifetimeScoreGet(role forecast.Role, addr common.Address) (*big.Int, error) {
	total, ok, err := m.readBigInt(lifetimeScoreKey(role, addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return total, nil
}

// LifetimeScorePut stores the lifetime total for an address and role.
func (m *Manager) LifetimeScorePut(role forecast.Role, addr common.Address, points *big.Int) error {
	return m.writeBigInt(lifetimeScoreKey(role, addr), points)
}

// ParticipantsGet returns the recorded membership for an epoch role.
func (m *Manager) ParticipantsGet(epoch uint64, role forecast.Role) ([]common.Address, error) {
	var addrs []common.Address
	if _, err := m.getJSON(participantsKey(epoch, role), &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// ParticipantsAppend registers a first-time participant for an epoch role.
// Deduplication is the caller's concern: the engine appends only on the first
// score write for the address.
func (m *Manager) ParticipantsAppend(epoch uint64, role forecast.Role, addr common.Address) error {
	addrs, err := m.ParticipantsGet(epoch, role)
	if err != nil {
		return err
	}
	return m.putJSON(participantsKey(epoch, role), append(addrs, addr))
}

// TopPerformersGet loads the stored ranking for an epoch role.
func (m *Manager) TopPerformersGet(epoch uint64, role forecast.Role) ([]forecast.TopPerformer, bool, error) {
	var entries []forecast.TopPerformer
	ok, err := m.getJSON(topPerformersKey(epoch, role), &entries)
	if err != nil || !ok {
		return nil, false, err
	}
	return entries, true, nil
}

// TopPerformersPut stores the ranking for an epoch role. Written exactly once
// at finalization.
func (m *Manager) TopPerformersPut(epoch uint64, role forecast.Role, entries []forecast.TopPerformer) error {
	return m.putJSON(topPerformersKey(epoch, role), entries)
}

// PendingIndexGet returns the epochs awaiting finalization, oldest first.
func (m *Manager) PendingIndexGet() ([]uint64, error) {
	var indexes []uint64
	if _, err := m.getJSON(pendingIndexKey(), &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

// PendingIndexPut stores the awaiting-finalization index.
func (m *Manager) PendingIndexPut(indexes []uint64) error {
	return m.putJSON(pendingIndexKey(), indexes)
}

// AuthorizedCallerGet reports membership in the authorized-caller set.
func (m *Manager) AuthorizedCallerGet(addr common.Address) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state manager unavailable")
	}
	return m.db.Has(authorizedCallerKey(addr))
}

// AuthorizedCallerPut flips membership in the authorized-caller set.
func (m *Manager) AuthorizedCallerPut(addr common.Address, authorized bool) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state manager unavailable")
	}
	if !authorized {
		return m.db.Delete(authorizedCallerKey(addr))
	}
	return m.db.Put(authorizedCallerKey(addr), []byte{1})
}

// RewardTableGet loads the stored percentage table override.
func (m *Manager) RewardTableGet() ([]uint64, bool, error) {
	var table []uint64
	ok, err := m.getJSON(rewardTableKey(), &table)
	if err != nil || !ok {
		return nil, false, err
	}
	return table, true, nil
}

// RewardTablePut stores the percentage table.
func (m *Manager) RewardTablePut(table []uint64) error {
	if err := forecast.ValidateRewardTable(table); err != nil {
		return err
	}
	return m.putJSON(rewardTableKey(), table)
}
