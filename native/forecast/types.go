package forecast

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Role distinguishes the two score-earning activities tracked per epoch.
type Role uint8

const (
	// RoleTrader scores positions opened on forecast markets.
	RoleTrader Role = iota
	// RoleCreator scores market creation and the activity it attracts.
	RoleCreator
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool { return r == RoleTrader || r == RoleCreator }

func (r Role) String() string {
	switch r {
	case RoleTrader:
		return "trader"
	case RoleCreator:
		return "creator"
	default:
		return "unknown"
	}
}

// EpochStatus tracks the lifecycle phase of a scoring epoch. Status only moves
// forward: Active -> PendingFinalize -> Finalized.
type EpochStatus uint8

const (
	// EpochActive accepts score reports and pool contributions.
	EpochActive EpochStatus = iota
	// EpochPendingFinalize has passed its deadline and waits on a verified
	// leaderboard submission or the recovery path.
	EpochPendingFinalize
	// EpochFinalized is terminal for the epoch.
	EpochFinalized
)

func (s EpochStatus) String() string {
	switch s {
	case EpochActive:
		return "active"
	case EpochPendingFinalize:
		return "pending_finalize"
	case EpochFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Epoch is the per-epoch ledger record. The pool is funded only by
// contributions made while the epoch was active and spent only by the epoch's
// own distribution; pools of different epochs never mix.
type Epoch struct {
	Index              uint64      `json:"index"`
	StartTime          int64       `json:"startTime"`
	Status             EpochStatus `json:"status"`
	PoolBalance        *big.Int    `json:"poolBalance"`
	Distributed        *big.Int    `json:"distributed"`
	RewardsDistributed bool        `json:"rewardsDistributed"`
	RecoveryFinalized  bool        `json:"recoveryFinalized"`
}

// NewEpoch returns an active epoch record with zeroed pool counters.
func NewEpoch(index uint64, startTime int64) *Epoch {
	return &Epoch{
		Index:       index,
		StartTime:   startTime,
		Status:      EpochActive,
		PoolBalance: big.NewInt(0),
		Distributed: big.NewInt(0),
	}
}

// Deadline returns the instant the epoch stops accepting reports.
func (e *Epoch) Deadline(duration int64) int64 {
	return e.StartTime + duration
}

// Remaining returns the undistributed portion of the epoch pool.
func (e *Epoch) Remaining() *big.Int {
	if e == nil || e.PoolBalance == nil {
		return big.NewInt(0)
	}
	remaining := new(big.Int).Set(e.PoolBalance)
	if e.Distributed != nil {
		remaining.Sub(remaining, e.Distributed)
	}
	if remaining.Sign() < 0 {
		return big.NewInt(0)
	}
	return remaining
}

// Clone returns a deep copy of the epoch record.
func (e *Epoch) Clone() *Epoch {
	if e == nil {
		return nil
	}
	clone := *e
	if e.PoolBalance != nil {
		clone.PoolBalance = new(big.Int).Set(e.PoolBalance)
	}
	if e.Distributed != nil {
		clone.Distributed = new(big.Int).Set(e.Distributed)
	}
	return &clone
}

// TopPerformer is one stored leaderboard row, written exactly once at
// finalization and read-only afterwards. Reward is zero for creator rows and
// for trader rows below the paid ranks.
type TopPerformer struct {
	Address common.Address `json:"address"`
	Points  *big.Int       `json:"points"`
	Reward  *big.Int       `json:"reward"`
}

// Clone returns a deep copy of the row.
func (t TopPerformer) Clone() TopPerformer {
	clone := t
	if t.Points != nil {
		clone.Points = new(big.Int).Set(t.Points)
	}
	if t.Reward != nil {
		clone.Reward = new(big.Int).Set(t.Reward)
	}
	return clone
}

// LeaderboardSubmission carries one epoch's externally computed ranking.
type LeaderboardSubmission struct {
	Epoch         uint64
	Traders       []common.Address
	TraderPoints  []*big.Int
	Creators      []common.Address
	CreatorPoints []*big.Int
}

// Distribution summarises one finalized epoch's payout.
type Distribution struct {
	Epoch     uint64
	TotalPaid *big.Int
	Remainder *big.Int
	Winners   []TopPerformer
	Backdated bool
}

// EpochView is the read-surface projection of an epoch.
type EpochView struct {
	Index              uint64      `json:"index"`
	StartTime          int64       `json:"startTime"`
	Deadline           int64       `json:"deadline"`
	GraceDeadline      int64       `json:"graceDeadline"`
	Status             EpochStatus `json:"status"`
	PastDue            bool        `json:"pastDue"`
	PoolBalance        *big.Int    `json:"poolBalance"`
	Distributed        *big.Int    `json:"distributed"`
	RewardsDistributed bool        `json:"rewardsDistributed"`
	RecoveryFinalized  bool        `json:"recoveryFinalized"`
}

// PendingEpoch lists an epoch awaiting finalization together with its pool.
type PendingEpoch struct {
	Index       uint64   `json:"index"`
	StartTime   int64    `json:"startTime"`
	PoolBalance *big.Int `json:"poolBalance"`
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func cloneTopPerformers(entries []TopPerformer) []TopPerformer {
	if entries == nil {
		return nil
	}
	out := make([]TopPerformer, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}
