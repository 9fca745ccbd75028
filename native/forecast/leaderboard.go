package forecast

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// The off-chain submitter computes the sorted ranking; the engine re-derives
// ground truth per address from its own score store and accepts the ranking
// only if every value matches and the order is non-increasing. Verification is
// strictly value-by-value, never an aggregate digest.

// finalizePlan is the fully validated effect of one submission. Plans are
// built for every epoch in a call before any state is mutated, so a failing
// epoch aborts the whole call with no partial effect.
type finalizePlan struct {
	epoch       *Epoch
	traderRows  []TopPerformer
	creatorRows []TopPerformer
	totalPaid   *big.Int
	backdated   bool
}

// SubmitLeaderboard verifies and finalizes a single epoch's ranking,
// distributing the epoch's isolated pool to the top ranked traders. Submitter
// only; the epoch must be pending and inside its grace window.
func (e *Engine) SubmitLeaderboard(caller common.Address, sub LeaderboardSubmission) (*Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireSubmitter(caller); err != nil {
		return nil, err
	}
	if _, err := e.rollDue(); err != nil {
		return nil, err
	}
	epoch, ok, err := e.state.EpochGet(sub.Epoch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	if e.now() > e.graceDeadline(epoch) {
		e.telemetry.IncSubmission("rejected")
		return nil, ErrGraceWindowClosed
	}
	plan, err := e.planFinalize(epoch, sub)
	if err != nil {
		e.telemetry.IncSubmission("rejected")
		return nil, err
	}
	if err := e.ensureVaultFunds(plan.totalPaid); err != nil {
		e.telemetry.IncSubmission("rejected")
		return nil, err
	}
	dist, err := e.applyPlan(plan)
	if err != nil {
		return nil, err
	}
	e.telemetry.IncSubmission("accepted")
	return dist, nil
}

// SubmitLeaderboardBatch finalizes a chronologically consecutive run of
// pending epochs in one call, enabling catch-up after a submitter outage. The
// grace deadline does not apply here, so a run of at least two epochs is
// required: a single epoch goes through SubmitLeaderboard and its grace gate.
func (e *Engine) SubmitLeaderboardBatch(caller common.Address, subs []LeaderboardSubmission) ([]*Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireSubmitter(caller); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(subs) < 2 {
		return nil, ErrBatchTooSmall
	}
	if _, err := e.rollDue(); err != nil {
		return nil, err
	}
	plans := make([]*finalizePlan, 0, len(subs))
	for i, sub := range subs {
		if sub.Epoch != subs[0].Epoch+uint64(i) {
			e.telemetry.IncSubmission("rejected")
			return nil, ErrEpochsNotConsecutive
		}
		epoch, ok, err := e.state.EpochGet(sub.Epoch)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUnknownEpoch
		}
		plan, err := e.planFinalize(epoch, sub)
		if err != nil {
			e.telemetry.IncSubmission("rejected")
			return nil, err
		}
		plans = append(plans, plan)
	}
	batchTotal := big.NewInt(0)
	for _, plan := range plans {
		batchTotal.Add(batchTotal, plan.totalPaid)
	}
	if err := e.ensureVaultFunds(batchTotal); err != nil {
		e.telemetry.IncSubmission("rejected")
		return nil, err
	}
	out := make([]*Distribution, 0, len(plans))
	for _, plan := range plans {
		dist, err := e.applyPlan(plan)
		if err != nil {
			return nil, err
		}
		out = append(out, dist)
	}
	e.telemetry.IncSubmission("accepted")
	return out, nil
}

// planFinalize validates a submission against the epoch state machine and the
// recorded scores, and computes the payout rows without mutating anything.
func (e *Engine) planFinalize(epoch *Epoch, sub LeaderboardSubmission) (*finalizePlan, error) {
	switch epoch.Status {
	case EpochActive:
		// rollDue already closed every expired epoch, so an active target
		// means its deadline has not passed yet.
		return nil, ErrEpochStillOpen
	case EpochFinalized:
		return nil, ErrEpochFinalized
	}
	if err := e.verifyRanking(epoch.Index, RoleTrader, sub.Traders, sub.TraderPoints); err != nil {
		return nil, err
	}
	if err := e.verifyRanking(epoch.Index, RoleCreator, sub.Creators, sub.CreatorPoints); err != nil {
		return nil, err
	}
	table, err := e.rewardTable()
	if err != nil {
		return nil, err
	}
	plan := &finalizePlan{
		epoch:     epoch,
		totalPaid: big.NewInt(0),
		backdated: e.now() > e.graceDeadline(epoch),
	}
	pool := copyBigInt(epoch.PoolBalance)
	plan.traderRows = make([]TopPerformer, len(sub.Traders))
	for i := range sub.Traders {
		row := TopPerformer{
			Address: sub.Traders[i],
			Points:  copyBigInt(sub.TraderPoints[i]),
			Reward:  big.NewInt(0),
		}
		if i < RewardRanks {
			amount := new(big.Int).Mul(pool, new(big.Int).SetUint64(table[i]))
			amount.Div(amount, big.NewInt(BpsDenominator))
			row.Reward = amount
			plan.totalPaid = new(big.Int).Add(plan.totalPaid, amount)
		}
		plan.traderRows[i] = row
	}
	plan.creatorRows = make([]TopPerformer, len(sub.Creators))
	for i := range sub.Creators {
		plan.creatorRows[i] = TopPerformer{
			Address: sub.Creators[i],
			Points:  copyBigInt(sub.CreatorPoints[i]),
			Reward:  big.NewInt(0),
		}
	}
	return plan, nil
}

// verifyRanking checks one role's list: pairwise lengths, the entry cap, no
// duplicate addresses, no vault self-payment, every submitted value equal to
// the recorded score, and a non-increasing order. A single bad entry rejects
// the whole call.
func (e *Engine) verifyRanking(epochIndex uint64, role Role, addrs []common.Address, points []*big.Int) error {
	if len(addrs) != len(points) {
		return ErrLengthMismatch
	}
	if len(addrs) > e.params.MaxLeaderboardEntries {
		return ErrTooManyEntries
	}
	seen := make(map[common.Address]struct{}, len(addrs))
	var prev *big.Int
	for i, addr := range addrs {
		if addr == e.vault {
			return ErrVaultRecipient
		}
		if _, dup := seen[addr]; dup {
			return ErrDuplicateEntry
		}
		seen[addr] = struct{}{}
		submitted := points[i]
		if submitted == nil || submitted.Sign() < 0 {
			return ErrScoreMismatch
		}
		truth, _, err := e.state.ScoreGet(epochIndex, role, addr)
		if err != nil {
			return err
		}
		if truth == nil {
			truth = big.NewInt(0)
		}
		if submitted.Cmp(truth) != 0 {
			return ErrScoreMismatch
		}
		if prev != nil && submitted.Cmp(prev) > 0 {
			return ErrLeaderboardUnsorted
		}
		prev = submitted
	}
	return nil
}

// applyPlan pays the planned rewards from the vault, then writes the stored
// top-K and finalizes the epoch. Transfers run first so a failing one leaves
// no ranking persisted for a still-pending epoch.
func (e *Engine) applyPlan(plan *finalizePlan) (*Distribution, error) {
	epoch := plan.epoch
	winners := make([]TopPerformer, 0, RewardRanks)
	for _, row := range plan.traderRows {
		if row.Reward == nil || row.Reward.Sign() <= 0 {
			continue
		}
		if err := e.transfer(e.vault, row.Address, row.Reward); err != nil {
			return nil, err
		}
		winners = append(winners, row.Clone())
	}
	if err := e.state.TopPerformersPut(epoch.Index, RoleTrader, plan.traderRows); err != nil {
		return nil, err
	}
	if err := e.state.TopPerformersPut(epoch.Index, RoleCreator, plan.creatorRows); err != nil {
		return nil, err
	}
	epoch.Distributed = new(big.Int).Add(epoch.Distributed, plan.totalPaid)
	epoch.RewardsDistributed = true
	epoch.Status = EpochFinalized
	if err := e.state.EpochPut(epoch); err != nil {
		return nil, err
	}
	if err := e.clearPending(epoch.Index); err != nil {
		return nil, err
	}
	remainder := epoch.Remaining()
	e.telemetry.ObserveRewardsSum(epoch.Index, bigFloat(plan.totalPaid))
	e.telemetry.ObserveRoundingDust(epoch.Index, bigFloat(remainder))
	e.emit(LeaderboardSubmittedEvent(epoch.Index, len(plan.traderRows), len(plan.creatorRows)))
	e.emit(RewardsDistributedEvent(epoch.Index, plan.totalPaid.String(), remainder.String(), plan.backdated, false))
	return &Distribution{
		Epoch:     epoch.Index,
		TotalPaid: copyBigInt(plan.totalPaid),
		Remainder: remainder,
		Winners:   winners,
		Backdated: plan.backdated,
	}, nil
}

func (e *Engine) graceDeadline(epoch *Epoch) int64 {
	return epoch.Deadline(e.params.EpochDuration) + e.params.GraceWindow
}
