package forecast

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"spredd/core/events"
	"spredd/core/types"
	"spredd/observability/metrics"
)

// engineState is the persistence boundary for the epoch ledger. Scores are
// keyed by epoch so past epochs stay frozen by construction: reports only ever
// land in the active epoch.
type engineState interface {
	CurrentEpochGet() (uint64, bool, error)
	CurrentEpochPut(index uint64) error
	EpochGet(index uint64) (*Epoch, bool, error)
	EpochPut(epoch *Epoch) error
	ScoreGet(epoch uint64, role Role, addr common.Address) (*big.Int, bool, error)
	ScorePut(epoch uint64, role Role, addr common.Address, points *big.Int) error
	LifetimeScoreGet(role Role, addr common.Address) (*big.Int, error)
	LifetimeScorePut(role Role, addr common.Address, points *big.Int) error
	ParticipantsGet(epoch uint64, role Role) ([]common.Address, error)
	ParticipantsAppend(epoch uint64, role Role, addr common.Address) error
	TopPerformersGet(epoch uint64, role Role) ([]TopPerformer, bool, error)
	TopPerformersPut(epoch uint64, role Role, entries []TopPerformer) error
	PendingIndexGet() ([]uint64, error)
	PendingIndexPut(indexes []uint64) error
	AuthorizedCallerGet(addr common.Address) (bool, error)
	AuthorizedCallerPut(addr common.Address, authorized bool) error
	RewardTableGet() ([]uint64, bool, error)
	RewardTablePut(table []uint64) error
	GetAccount(addr common.Address) (*types.Account, error)
	PutAccount(addr common.Address, account *types.Account) error
}

// Engine owns the weekly scoring-epoch and reward-distribution state machine.
// Every public entry point runs under the engine mutex to completion, so a
// call never observes or leaves partial state; the same lock is what keeps the
// distribution path non-reentrant.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	emitter   events.Emitter
	nowFn     func() int64
	params    Params
	owner     common.Address
	factory   common.Address
	submitter common.Address
	vault     common.Address
	telemetry *metrics.ForecastMetrics
}

// NewEngine constructs an engine with default dependencies and the production
// weekly cadence.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		params:    DefaultParams(),
		telemetry: metrics.Forecast(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetOwner configures the operator that controls role assignments and the
// recovery surface.
func (e *Engine) SetOwner(addr common.Address) { e.owner = addr }

// SetVault configures the account holding the pooled contributions.
func (e *Engine) SetVault(addr common.Address) { e.vault = addr }

// SetParams replaces the cadence parameters after validation.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.params = params
	e.mu.Unlock()
	return nil
}

// Params returns a copy of the active cadence parameters.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	params := e.params
	params.RewardTableBps = append([]uint64(nil), e.params.RewardTableBps...)
	return params
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// ContributeToPool moves funds from an authorized market into the reward vault
// and credits the active epoch's isolated pool.
func (e *Engine) ContributeToPool(caller common.Address, amount *big.Int) (*Epoch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireAuthorizedCaller(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if isZeroAddress(e.vault) {
		return nil, ErrVaultNotSet
	}
	epoch, err := e.rollDue()
	if err != nil {
		return nil, err
	}
	callerAccount, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	callerAccount = ensureAccount(callerAccount)
	if callerAccount.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	callerAccount.Balance = new(big.Int).Sub(callerAccount.Balance, amount)
	vaultAccount, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}
	vaultAccount = ensureAccount(vaultAccount)
	vaultAccount.Balance = new(big.Int).Add(vaultAccount.Balance, amount)
	if err := e.state.PutAccount(caller, callerAccount); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.vault, vaultAccount); err != nil {
		return nil, err
	}
	epoch.PoolBalance = new(big.Int).Add(epoch.PoolBalance, amount)
	if err := e.state.EpochPut(epoch); err != nil {
		return nil, err
	}
	e.telemetry.SetEpochPool(bigFloat(epoch.PoolBalance))
	e.emit(PoolContributionEvent(epoch.Index, caller.Hex(), amount.String(), epoch.PoolBalance.String()))
	return epoch.Clone(), nil
}

// ReportTraderEvent converts a trade fact into forecast points for the trader
// and accumulates them in the active epoch. The market reference identifies the
// reporting market for external audit trails.
func (e *Engine) ReportTraderEvent(caller common.Address, user common.Address, marketRef common.Hash, volume *big.Int, positionTime, creationTime, duration int64, correctSideLiquidity, totalLiquidity, positionSize *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireAuthorizedCaller(caller); err != nil {
		return nil, err
	}
	epoch, err := e.rollDue()
	if err != nil {
		return nil, err
	}
	points := TraderScore(positionSize, volume, positionTime, creationTime, duration, correctSideLiquidity, totalLiquidity)
	if points.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if err := e.creditScore(epoch.Index, RoleTrader, user, points); err != nil {
		return nil, err
	}
	e.telemetry.IncScoreReport(RoleTrader.String())
	return points, nil
}

// ReportCreatorEvent converts market creation facts into forecast points for
// the creator and accumulates them in the active epoch.
func (e *Engine) ReportCreatorEvent(caller common.Address, creator common.Address, marketRef common.Hash, volume *big.Int, tradeCount uint64) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNilState
	}
	if err := e.requireAuthorizedCaller(caller); err != nil {
		return nil, err
	}
	epoch, err := e.rollDue()
	if err != nil {
		return nil, err
	}
	points := CreatorScore(volume, tradeCount)
	if err := e.creditScore(epoch.Index, RoleCreator, creator, points); err != nil {
		return nil, err
	}
	e.telemetry.IncScoreReport(RoleCreator.String())
	return points, nil
}

// creditScore accumulates points for the participant in the given epoch and in
// the lifetime total, registering first-time participants for the epoch.
func (e *Engine) creditScore(epochIndex uint64, role Role, addr common.Address, points *big.Int) error {
	current, existed, err := e.state.ScoreGet(epochIndex, role, addr)
	if err != nil {
		return err
	}
	if current == nil {
		current = big.NewInt(0)
	}
	updated := new(big.Int).Add(current, points)
	if err := e.state.ScorePut(epochIndex, role, addr, updated); err != nil {
		return err
	}
	if !existed {
		if err := e.state.ParticipantsAppend(epochIndex, role, addr); err != nil {
			return err
		}
	}
	lifetime, err := e.state.LifetimeScoreGet(role, addr)
	if err != nil {
		return err
	}
	if lifetime == nil {
		lifetime = big.NewInt(0)
	}
	return e.state.LifetimeScorePut(role, addr, new(big.Int).Add(lifetime, points))
}

// rollDue lazily evaluates the epoch boundary: every epoch whose deadline has
// passed is closed and a successor opened at the nominal boundary, so the
// engine never depends on an external scheduler and the counter advances by
// exactly one per boundary. Returns the active epoch.
func (e *Engine) rollDue() (*Epoch, error) {
	epoch, err := e.ensureCurrent()
	if err != nil {
		return nil, err
	}
	now := e.now()
	for now >= epoch.Deadline(e.params.EpochDuration) {
		epoch.Status = EpochPendingFinalize
		if err := e.state.EpochPut(epoch); err != nil {
			return nil, err
		}
		if err := e.markPending(epoch.Index); err != nil {
			return nil, err
		}
		e.telemetry.IncEpochClosed()
		e.emit(EpochClosedEvent(epoch.Index, epoch.PoolBalance.String()))
		next := NewEpoch(epoch.Index+1, epoch.Deadline(e.params.EpochDuration))
		if err := e.state.EpochPut(next); err != nil {
			return nil, err
		}
		if err := e.state.CurrentEpochPut(next.Index); err != nil {
			return nil, err
		}
		epoch = next
	}
	return epoch, nil
}

// ensureCurrent loads the active epoch, opening epoch one on first use.
func (e *Engine) ensureCurrent() (*Epoch, error) {
	index, ok, err := e.state.CurrentEpochGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		first := NewEpoch(1, e.now())
		if err := e.state.EpochPut(first); err != nil {
			return nil, err
		}
		if err := e.state.CurrentEpochPut(first.Index); err != nil {
			return nil, err
		}
		return first, nil
	}
	epoch, ok, err := e.state.EpochGet(index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownEpoch
	}
	return epoch, nil
}

// markPending records an epoch in the awaiting-finalization index.
func (e *Engine) markPending(index uint64) error {
	pending, err := e.state.PendingIndexGet()
	if err != nil {
		return err
	}
	for _, idx := range pending {
		if idx == index {
			return nil
		}
	}
	return e.state.PendingIndexPut(append(pending, index))
}

// clearPending removes a finalized epoch from the awaiting-finalization index.
func (e *Engine) clearPending(index uint64) error {
	pending, err := e.state.PendingIndexGet()
	if err != nil {
		return err
	}
	filtered := make([]uint64, 0, len(pending))
	for _, idx := range pending {
		if idx != index {
			filtered = append(filtered, idx)
		}
	}
	if len(filtered) == len(pending) {
		return nil
	}
	return e.state.PendingIndexPut(filtered)
}

// ensureVaultFunds confirms the vault covers a planned payout before any state
// is written, keeping failed calls free of partial effects.
func (e *Engine) ensureVaultFunds(total *big.Int) error {
	if total == nil || total.Sign() <= 0 {
		return nil
	}
	account, err := e.state.GetAccount(e.vault)
	if err != nil {
		return err
	}
	account = ensureAccount(account)
	if account.Balance.Cmp(total) < 0 {
		return ErrVaultUnderfunded
	}
	return nil
}

// rewardTable returns the persisted table, falling back to the configured
// parameters when no override has been stored.
func (e *Engine) rewardTable() ([]uint64, error) {
	table, ok, err := e.state.RewardTableGet()
	if err != nil {
		return nil, err
	}
	if ok {
		return table, nil
	}
	return e.params.RewardTableBps, nil
}

// SetRewardTable replaces the percentage table applied to future
// distributions. Owner only; the table must sum to exactly 10000 bps.
func (e *Engine) SetRewardTable(caller common.Address, table []uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := ValidateRewardTable(table); err != nil {
		return err
	}
	if err := e.state.RewardTablePut(append([]uint64(nil), table...)); err != nil {
		return err
	}
	e.emit(RewardTableUpdatedEvent(table))
	return nil
}

// transfer moves funds between two tracked accounts. A self-transfer is the
// identity once solvency is confirmed: debiting and crediting the same account
// through two loaded copies would let the credit overwrite the debit.
func (e *Engine) transfer(from, to common.Address, amount *big.Int) error {
	fromAccount, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	fromAccount = ensureAccount(fromAccount)
	if fromAccount.Balance.Cmp(amount) < 0 {
		return ErrVaultUnderfunded
	}
	if from == to {
		return nil
	}
	fromAccount.Balance = new(big.Int).Sub(fromAccount.Balance, amount)
	toAccount, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAccount = ensureAccount(toAccount)
	toAccount.Balance = new(big.Int).Add(toAccount.Balance, amount)
	if err := e.state.PutAccount(from, fromAccount); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAccount)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func isZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

func bigFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
