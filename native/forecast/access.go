package forecast

import "github.com/ethereum/go-ethereum/common"

// The engine carries two independent trust roles next to the owning operator:
// the market factory alone flips authorized-caller membership, and the
// leaderboard manager alone submits rankings. Every gate runs before any state
// mutation.

func (e *Engine) requireOwner(caller common.Address) error {
	if isZeroAddress(e.owner) || caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

func (e *Engine) requireFactory(caller common.Address) error {
	if isZeroAddress(e.factory) || caller != e.factory {
		return ErrNotFactory
	}
	return nil
}

func (e *Engine) requireSubmitter(caller common.Address) error {
	if isZeroAddress(e.submitter) || caller != e.submitter {
		return ErrNotSubmitter
	}
	return nil
}

func (e *Engine) requireAuthorizedCaller(caller common.Address) error {
	authorized, err := e.state.AuthorizedCallerGet(caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ErrNotAuthorized
	}
	return nil
}

// SetFactory assigns the address permitted to manage the authorized-caller
// set. Owner only.
func (e *Engine) SetFactory(caller, factory common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.factory = factory
	e.emit(FactoryUpdatedEvent(factory.Hex()))
	return nil
}

// SetLeaderboardManager assigns the single trusted identity permitted to
// submit computed rankings. Owner only.
func (e *Engine) SetLeaderboardManager(caller, submitter common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.submitter = submitter
	e.emit(SubmitterUpdatedEvent(submitter.Hex()))
	return nil
}

// SetAuthorizedCaller flips membership in the authorized-caller set. Factory
// only; membership is restricted to code-bearing addresses.
func (e *Engine) SetAuthorizedCaller(caller, target common.Address, authorized bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNilState
	}
	if err := e.requireFactory(caller); err != nil {
		return err
	}
	if authorized {
		account, err := e.state.GetAccount(target)
		if err != nil {
			return err
		}
		if !account.IsContract() {
			return ErrNotContract
		}
	}
	if err := e.state.AuthorizedCallerPut(target, authorized); err != nil {
		return err
	}
	e.emit(CallerUpdatedEvent(target.Hex(), authorized))
	return nil
}

// IsAuthorizedCaller reports membership in the authorized-caller set.
func (e *Engine) IsAuthorizedCaller(addr common.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return false, ErrNilState
	}
	return e.state.AuthorizedCallerGet(addr)
}
