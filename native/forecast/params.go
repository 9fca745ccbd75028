package forecast

import "fmt"

const (
	// BpsDenominator defines the fixed denominator for reward percentages.
	BpsDenominator = 10_000
	// RewardRanks is the number of ranked traders paid from an epoch pool.
	RewardRanks = 10
)

// Params controls epoch cadence and submission limits.
type Params struct {
	// EpochDuration is the nominal length of a scoring epoch in seconds.
	EpochDuration int64
	// GraceWindow is how long after the epoch deadline the engine waits for a
	// leaderboard submission before recovery becomes eligible, in seconds.
	GraceWindow int64
	// MaxLeaderboardEntries bounds how many ranked entries a submission may
	// carry per role. The bound is what keeps verification cost fixed.
	MaxLeaderboardEntries int
	// RewardTableBps holds the ten basis-point weights paid to the top ranked
	// traders, best rank first.
	RewardTableBps []uint64
}

// DefaultParams returns the production weekly cadence.
func DefaultParams() Params {
	return Params{
		EpochDuration:         7 * 24 * 60 * 60,
		GraceWindow:           2 * 24 * 60 * 60,
		MaxLeaderboardEntries: 50,
		RewardTableBps:        []uint64{2500, 1800, 1500, 1000, 800, 700, 600, 500, 400, 200},
	}
}

// Validate ensures the supplied parameters fall within safe operating ranges.
func (p Params) Validate() error {
	if p.EpochDuration <= 0 {
		return fmt.Errorf("epoch duration must be positive")
	}
	if p.GraceWindow <= 0 {
		return fmt.Errorf("grace window must be positive")
	}
	if p.MaxLeaderboardEntries <= 0 {
		return fmt.Errorf("max leaderboard entries must be positive")
	}
	if p.MaxLeaderboardEntries < RewardRanks {
		return fmt.Errorf("max leaderboard entries must cover the %d reward ranks", RewardRanks)
	}
	return ValidateRewardTable(p.RewardTableBps)
}

// ValidateRewardTable checks the percentage-table invariant: exactly ten
// weights summing to exactly 10000 basis points.
func ValidateRewardTable(table []uint64) error {
	if len(table) != RewardRanks {
		return ErrInvalidRewardTable
	}
	var sum uint64
	for _, bps := range table {
		sum += bps
	}
	if sum != BpsDenominator {
		return ErrInvalidRewardTable
	}
	return nil
}
