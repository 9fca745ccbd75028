package forecast

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// The recovery surface is the break-glass path for an absent submitter. It
// finalizes without distributing, preserving the epoch's isolated pool, and a
// later owner-directed distribution releases it. Funds are never stranded and
// never mixed across epochs.

// EmergencyFinalizeEpoch finalizes a pending epoch whose grace window elapsed
// with no submission. Owner only; moves no funds. Rolling the expired current
// epoch first keeps the engine able to accept new scores.
func (e *Engine) EmergencyFinalizeEpoch(caller common.Address, index uint64) (*Epoch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if _, err := e.rollDue(); err != nil {
		return nil, err
	}
	epoch, ok, err := e.state.EpochGet(index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	switch epoch.Status {
	case EpochActive:
		return nil, ErrEpochStillOpen
	case EpochFinalized:
		return nil, ErrEpochFinalized
	}
	if e.now() <= e.graceDeadline(epoch) {
		return nil, ErrGraceWindowOpen
	}
	epoch.Status = EpochFinalized
	epoch.RecoveryFinalized = true
	if err := e.state.EpochPut(epoch); err != nil {
		return nil, err
	}
	if err := e.clearPending(epoch.Index); err != nil {
		return nil, err
	}
	e.telemetry.IncRecovery()
	e.emit(EpochRecoveredEvent(epoch.Index, epoch.PoolBalance.String()))
	return epoch.Clone(), nil
}

// ManualRewardDistribution releases the preserved pool of a recovery-finalized
// epoch to owner-designated winners. The requested amounts must not exceed the
// epoch's remaining isolated pool.
func (e *Engine) ManualRewardDistribution(caller common.Address, index uint64, winners []common.Address, amounts []*big.Int) (*Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if len(winners) != len(amounts) {
		return nil, ErrLengthMismatch
	}
	if len(winners) == 0 {
		return nil, ErrInvalidAmount
	}
	epoch, ok, err := e.state.EpochGet(index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	if epoch.Status != EpochFinalized {
		return nil, ErrNotRecovered
	}
	if !epoch.RecoveryFinalized {
		return nil, ErrNotRecovered
	}
	if epoch.RewardsDistributed {
		return nil, ErrAlreadyDistributed
	}
	total := big.NewInt(0)
	for i, amount := range amounts {
		if amount == nil || amount.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		if winners[i] == e.vault {
			return nil, ErrVaultRecipient
		}
		total = new(big.Int).Add(total, amount)
	}
	if total.Cmp(epoch.Remaining()) > 0 {
		return nil, ErrPoolExceeded
	}
	if err := e.ensureVaultFunds(total); err != nil {
		return nil, err
	}
	paid := make([]TopPerformer, 0, len(winners))
	for i, winner := range winners {
		if err := e.transfer(e.vault, winner, amounts[i]); err != nil {
			return nil, err
		}
		paid = append(paid, TopPerformer{Address: winner, Points: big.NewInt(0), Reward: copyBigInt(amounts[i])})
	}
	epoch.Distributed = new(big.Int).Add(epoch.Distributed, total)
	epoch.RewardsDistributed = true
	if err := e.state.EpochPut(epoch); err != nil {
		return nil, err
	}
	remainder := epoch.Remaining()
	e.telemetry.ObserveRewardsSum(epoch.Index, bigFloat(total))
	e.telemetry.ObserveRoundingDust(epoch.Index, bigFloat(remainder))
	e.emit(RewardsDistributedEvent(epoch.Index, total.String(), remainder.String(), true, true))
	return &Distribution{
		Epoch:     epoch.Index,
		TotalPaid: total,
		Remainder: remainder,
		Winners:   paid,
		Backdated: true,
	}, nil
}

// EmergencyWithdraw sweeps the entire vault balance to the supplied address.
// Owner only; the last-resort exit for stranded funds and accumulated dust.
func (e *Engine) EmergencyWithdraw(caller, to common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if isZeroAddress(e.vault) {
		return nil, ErrVaultNotSet
	}
	if to == e.vault {
		return nil, ErrVaultRecipient
	}
	vaultAccount, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	vaultAccount = ensureAccount(vaultAccount)
	amount := new(big.Int).Set(vaultAccount.Balance)
	if amount.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if err := e.transfer(e.vault, to, amount); err != nil {
		return nil, err
	}
	e.emit(VaultWithdrawnEvent(to.Hex(), amount.String()))
	return amount, nil
}
