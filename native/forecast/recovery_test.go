package forecast

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestEmergencyFinalizeRespectsGraceWindow(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	clock.advance(3600)
	// The grace window still protects the submitter's slot.
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); !errors.Is(err, ErrGraceWindowOpen) {
		t.Fatalf("expected ErrGraceWindowOpen, got %v", err)
	}
	clock.advance(601)
	if _, err := engine.EmergencyFinalizeEpoch(testSubmitter, 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	epoch, err := engine.EmergencyFinalizeEpoch(testOwner, 1)
	if err != nil {
		t.Fatalf("emergency finalize: %v", err)
	}
	if epoch.Status != EpochFinalized || !epoch.RecoveryFinalized {
		t.Fatalf("unexpected epoch state: %+v", epoch)
	}
	if epoch.RewardsDistributed {
		t.Fatalf("recovery finalization must not distribute")
	}
	// The pool is preserved, not paid out.
	if got := state.balance(testVault); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("vault balance = %s, want preserved 1000", got)
	}
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); !errors.Is(err, ErrEpochFinalized) {
		t.Fatalf("expected ErrEpochFinalized on repeat, got %v", err)
	}
}

func TestEmergencyFinalizeRequiresPendingEpoch(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 9); !errors.Is(err, ErrUnknownEpoch) {
		t.Fatalf("expected ErrUnknownEpoch, got %v", err)
	}
	// rollDue runs first, so the active epoch it opens cannot be targeted.
	clock.advance(3600 + 601)
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 2); !errors.Is(err, ErrEpochStillOpen) {
		t.Fatalf("expected ErrEpochStillOpen, got %v", err)
	}
}

func TestManualRewardDistributionReleasesPreservedPool(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	clock.advance(3600 + 601)
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); err != nil {
		t.Fatalf("emergency finalize: %v", err)
	}

	winners := []common.Address{traderA, traderB}
	amounts := []*big.Int{big.NewInt(600), big.NewInt(300)}
	dist, err := engine.ManualRewardDistribution(testOwner, 1, winners, amounts)
	if err != nil {
		t.Fatalf("manual distribution: %v", err)
	}
	if !dist.Backdated {
		t.Fatalf("manual distribution must be backdated")
	}
	if dist.TotalPaid.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("total paid = %s, want 900", dist.TotalPaid)
	}
	if dist.Remainder.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("remainder = %s, want 100", dist.Remainder)
	}
	if got := state.balance(traderA); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("trader A balance = %s, want 600", got)
	}
	if got := state.balance(testVault); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("vault balance = %s, want 100", got)
	}
	// A distributed epoch cannot be paid again.
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, amounts); !errors.Is(err, ErrAlreadyDistributed) {
		t.Fatalf("expected ErrAlreadyDistributed, got %v", err)
	}
}

func TestManualRewardDistributionBoundsAndGates(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1_000)); err != nil {
		t.Fatalf("contribute epoch 1: %v", err)
	}
	clock.advance(3600)
	if _, err := engine.ContributeToPool(testMarket, big.NewInt(5_000)); err != nil {
		t.Fatalf("contribute epoch 2: %v", err)
	}

	winners := []common.Address{traderA}
	// Epoch 1 was never recovery-finalized.
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, []*big.Int{big.NewInt(1)}); !errors.Is(err, ErrNotRecovered) {
		t.Fatalf("expected ErrNotRecovered, got %v", err)
	}
	clock.advance(601)
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); err != nil {
		t.Fatalf("emergency finalize: %v", err)
	}
	if _, err := engine.ManualRewardDistribution(testSubmitter, 1, winners, []*big.Int{big.NewInt(1)}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, []*big.Int{}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, []*big.Int{big.NewInt(0)}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	// Epoch 2's funds are in the same vault, but epoch 1's distribution is
	// bounded by its own pool.
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, []*big.Int{big.NewInt(1_001)}); !errors.Is(err, ErrPoolExceeded) {
		t.Fatalf("expected ErrPoolExceeded, got %v", err)
	}
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, []*big.Int{big.NewInt(1_000)}); err != nil {
		t.Fatalf("manual distribution at the bound: %v", err)
	}
	if got := state.balance(testVault); got.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("vault balance = %s, want epoch 2's untouched 5000", got)
	}
}

func TestManualRewardDistributionGuardsVault(t *testing.T) {
	engine, state, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1_000)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	clock.advance(3600 + 601)
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); err != nil {
		t.Fatalf("emergency finalize: %v", err)
	}

	// Paying the vault to itself would count the pool as distributed while
	// the funds never leave.
	if _, err := engine.ManualRewardDistribution(testOwner, 1, []common.Address{testVault}, []*big.Int{big.NewInt(100)}); !errors.Is(err, ErrVaultRecipient) {
		t.Fatalf("expected ErrVaultRecipient, got %v", err)
	}
	sink := common.HexToAddress("0x0000000000000000000000000000000000000055")
	if _, err := engine.EmergencyWithdraw(testOwner, sink); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// The swept vault fails the whole distribution up front, before any
	// winner is paid.
	winners := []common.Address{traderA, traderB}
	amounts := []*big.Int{big.NewInt(600), big.NewInt(300)}
	if _, err := engine.ManualRewardDistribution(testOwner, 1, winners, amounts); !errors.Is(err, ErrVaultUnderfunded) {
		t.Fatalf("expected ErrVaultUnderfunded, got %v", err)
	}
	if got := state.balance(traderA); got.Sign() != 0 {
		t.Fatalf("trader A paid from a swept vault: %s", got)
	}
	if state.epochs[1].RewardsDistributed {
		t.Fatalf("swept epoch marked distributed")
	}
}

func TestEmergencyWithdrawSweepsVault(t *testing.T) {
	engine, state, _ := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(777)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	sink := common.HexToAddress("0x0000000000000000000000000000000000000055")
	if _, err := engine.EmergencyWithdraw(testFactory, sink); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := engine.EmergencyWithdraw(testOwner, testVault); !errors.Is(err, ErrVaultRecipient) {
		t.Fatalf("expected ErrVaultRecipient for self-sweep, got %v", err)
	}
	amount, err := engine.EmergencyWithdraw(testOwner, sink)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amount.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("withdrawn = %s, want 777", amount)
	}
	if got := state.balance(sink); got.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("sink balance = %s, want 777", got)
	}
	if got := state.balance(testVault); got.Sign() != 0 {
		t.Fatalf("vault balance = %s, want 0", got)
	}
	// A drained vault withdraws zero without error.
	amount, err = engine.EmergencyWithdraw(testOwner, sink)
	if err != nil {
		t.Fatalf("second withdraw: %v", err)
	}
	if amount.Sign() != 0 {
		t.Fatalf("second withdraw = %s, want 0", amount)
	}
}

func TestPendingEpochsListsAwaitingFinalization(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	if _, err := engine.ContributeToPool(testMarket, big.NewInt(100)); err != nil {
		t.Fatalf("contribute: %v", err)
	}
	clock.advance(2 * 3600)
	if _, err := engine.ContributeToPool(testMarket, big.NewInt(1)); err != nil {
		t.Fatalf("roll epochs: %v", err)
	}
	pending, err := engine.PendingEpochs()
	if err != nil {
		t.Fatalf("pending epochs: %v", err)
	}
	if len(pending) != 2 || pending[0].Index != 1 || pending[1].Index != 2 {
		t.Fatalf("pending = %+v, want epochs 1 and 2", pending)
	}
	if pending[0].PoolBalance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("epoch 1 pool = %s, want 100", pending[0].PoolBalance)
	}
	if _, err := engine.SubmitLeaderboard(testSubmitter, submission(2, nil, nil)); err != nil {
		t.Fatalf("finalize epoch 2: %v", err)
	}
	pending, err = engine.PendingEpochs()
	if err != nil {
		t.Fatalf("pending epochs: %v", err)
	}
	if len(pending) != 1 || pending[0].Index != 1 {
		t.Fatalf("pending = %+v, want only epoch 1", pending)
	}
	// Recovery finalization drops the epoch from the pending set too.
	if _, err := engine.EmergencyFinalizeEpoch(testOwner, 1); err != nil {
		t.Fatalf("emergency finalize: %v", err)
	}
	pending, err = engine.PendingEpochs()
	if err != nil {
		t.Fatalf("pending epochs: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want none", pending)
	}
}
