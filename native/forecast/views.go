package forecast

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// The read surface never mutates state. Deadlines are logical comparisons, so
// an epoch whose boundary has passed but has not been lazily closed yet is
// reported with PastDue set rather than with a rewritten status.

// CurrentEpoch returns the active epoch's status and timing.
func (e *Engine) CurrentEpoch() (*EpochView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	index, ok, err := e.state.CurrentEpochGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	return e.epochView(index)
}

// EpochInfo returns the stored record for any epoch.
func (e *Engine) EpochInfo(index uint64) (*EpochView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	return e.epochView(index)
}

func (e *Engine) epochView(index uint64) (*EpochView, error) {
	epoch, ok, err := e.state.EpochGet(index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	deadline := epoch.Deadline(e.params.EpochDuration)
	return &EpochView{
		Index:              epoch.Index,
		StartTime:          epoch.StartTime,
		Deadline:           deadline,
		GraceDeadline:      deadline + e.params.GraceWindow,
		Status:             epoch.Status,
		PastDue:            epoch.Status == EpochActive && e.now() >= deadline,
		PoolBalance:        copyBigInt(epoch.PoolBalance),
		Distributed:        copyBigInt(epoch.Distributed),
		RewardsDistributed: epoch.RewardsDistributed,
		RecoveryFinalized:  epoch.RecoveryFinalized,
	}, nil
}

// ScoreOf returns the accumulated points for an address in an epoch. Live and
// historical epochs resolve through the same epoch-keyed store; absent entries
// are zero.
func (e *Engine) ScoreOf(epoch uint64, role Role, addr common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	points, _, err := e.state.ScoreGet(epoch, role, addr)
	if err != nil {
		return nil, err
	}
	return copyBigInt(points), nil
}

// LifetimeScoreOf returns the never-resetting total for an address and role.
func (e *Engine) LifetimeScoreOf(role Role, addr common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	points, err := e.state.LifetimeScoreGet(role, addr)
	if err != nil {
		return nil, err
	}
	return copyBigInt(points), nil
}

// Participants returns the deduplicated membership recorded for an epoch role.
func (e *Engine) Participants(epoch uint64, role Role) ([]common.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	addrs, err := e.state.ParticipantsGet(epoch, role)
	if err != nil {
		return nil, err
	}
	return append([]common.Address(nil), addrs...), nil
}

// TopPerformers returns the stored ranking for a finalized epoch together
// with the reward paid to each row.
func (e *Engine) TopPerformers(epoch uint64, role Role) ([]TopPerformer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	entries, ok, err := e.state.TopPerformersGet(epoch, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return cloneTopPerformers(entries), nil
}

// PendingEpochs lists every epoch awaiting finalization with its pool size,
// oldest first. The stored pending index keeps the read proportional to the
// number of pending epochs rather than the system's lifetime.
func (e *Engine) PendingEpochs() ([]PendingEpoch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	indexes, err := e.state.PendingIndexGet()
	if err != nil {
		return nil, err
	}
	pending := []PendingEpoch{}
	for _, index := range indexes {
		epoch, ok, err := e.state.EpochGet(index)
		if err != nil {
			return nil, err
		}
		if !ok || epoch.Status != EpochPendingFinalize {
			continue
		}
		pending = append(pending, PendingEpoch{
			Index:       epoch.Index,
			StartTime:   epoch.StartTime,
			PoolBalance: copyBigInt(epoch.PoolBalance),
		})
	}
	return pending, nil
}
