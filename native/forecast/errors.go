package forecast

import "errors"

// Authorization failures. The caller lacks the role required by the entry
// point; no state is mutated.
var (
	ErrNilState      = errors.New("forecast: state not configured")
	ErrNotOwner      = errors.New("forecast: caller is not the owner")
	ErrNotFactory    = errors.New("forecast: caller is not the market factory")
	ErrNotSubmitter  = errors.New("forecast: caller is not the leaderboard manager")
	ErrNotAuthorized = errors.New("forecast: caller is not an authorized market")
	ErrNotContract   = errors.New("forecast: authorized callers must carry code")
)

// State failures. The targeted epoch is in the wrong phase for the operation.
var (
	ErrUnknownEpoch       = errors.New("forecast: unknown epoch")
	ErrEpochStillOpen     = errors.New("forecast: epoch deadline has not passed")
	ErrEpochFinalized     = errors.New("forecast: epoch already finalized")
	ErrAlreadyDistributed = errors.New("forecast: rewards already distributed")
	ErrNotRecovered       = errors.New("forecast: epoch was not finalized through recovery")
	ErrGraceWindowOpen    = errors.New("forecast: grace window has not elapsed")
	ErrGraceWindowClosed  = errors.New("forecast: grace window has elapsed")
)

// Validation failures. The submitted payload contradicts ledger truth or the
// protocol limits.
var (
	ErrLengthMismatch       = errors.New("forecast: ranked addresses and points length mismatch")
	ErrTooManyEntries       = errors.New("forecast: leaderboard entry limit exceeded")
	ErrLeaderboardUnsorted  = errors.New("forecast: leaderboard points must be non-increasing")
	ErrScoreMismatch        = errors.New("forecast: submitted points do not match recorded scores")
	ErrDuplicateEntry       = errors.New("forecast: duplicate address in leaderboard")
	ErrInvalidRewardTable   = errors.New("forecast: reward table must hold ten weights summing to 10000 bps")
	ErrEpochsNotConsecutive = errors.New("forecast: batch epochs must be consecutive")
	ErrEmptyBatch           = errors.New("forecast: batch requires at least one epoch")
	ErrBatchTooSmall        = errors.New("forecast: batch requires at least two consecutive epochs")
	ErrInvalidAmount        = errors.New("forecast: amount must be positive")
	ErrInvalidRole          = errors.New("forecast: unknown participant role")
	ErrVaultRecipient       = errors.New("forecast: reward vault cannot be a transfer recipient")
)

// Resource failures. The requested spend exceeds what the epoch or vault holds.
var (
	ErrPoolExceeded      = errors.New("forecast: requested amounts exceed the remaining epoch pool")
	ErrVaultUnderfunded  = errors.New("forecast: reward vault underfunded")
	ErrInsufficientFunds = errors.New("forecast: insufficient balance")
	ErrVaultNotSet       = errors.New("forecast: reward vault not configured")
)
