package forecast

import (
	"strconv"
	"strings"

	"spredd/core/events"
	"spredd/core/types"
)

const (
	// EventTypeEpochClosed is emitted when an epoch crosses its deadline.
	EventTypeEpochClosed = "forecast.epoch.closed"
	// EventTypeLeaderboardSubmitted is emitted when a ranking passes verification.
	EventTypeLeaderboardSubmitted = "forecast.leaderboard.submitted"
	// EventTypeRewardsDistributed is emitted when an epoch pool pays out.
	EventTypeRewardsDistributed = "forecast.rewards.distributed"
	// EventTypePoolContribution is emitted when a market funds the active pool.
	EventTypePoolContribution = "forecast.pool.contribution"
	// EventTypeEpochRecovered is emitted when the recovery path finalizes an epoch.
	EventTypeEpochRecovered = "forecast.epoch.recovered"
	// EventTypeCallerUpdated is emitted when authorized-caller membership changes.
	EventTypeCallerUpdated = "forecast.caller.updated"
	// EventTypeFactoryUpdated is emitted when the factory role is reassigned.
	EventTypeFactoryUpdated = "forecast.factory.updated"
	// EventTypeSubmitterUpdated is emitted when the leaderboard manager changes.
	EventTypeSubmitterUpdated = "forecast.submitter.updated"
	// EventTypeRewardTableUpdated is emitted when the percentage table changes.
	EventTypeRewardTableUpdated = "forecast.rewardtable.updated"
	// EventTypeVaultWithdrawn is emitted on an emergency full-pool withdrawal.
	EventTypeVaultWithdrawn = "forecast.vault.withdrawn"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// EpochClosedEvent announces that an epoch stopped accepting reports.
func EpochClosedEvent(epoch uint64, pool string) *types.Event {
	return &types.Event{
		Type: EventTypeEpochClosed,
		Attributes: map[string]string{
			"epoch": strconv.FormatUint(epoch, 10),
			"pool":  pool,
		},
	}
}

// LeaderboardSubmittedEvent announces an accepted ranking submission.
func LeaderboardSubmittedEvent(epoch uint64, traders, creators int) *types.Event {
	return &types.Event{
		Type: EventTypeLeaderboardSubmitted,
		Attributes: map[string]string{
			"epoch":    strconv.FormatUint(epoch, 10),
			"traders":  strconv.Itoa(traders),
			"creators": strconv.Itoa(creators),
		},
	}
}

// RewardsDistributedEvent announces an epoch payout, distinguishing current
// from backdated distributions and the manual recovery path.
func RewardsDistributedEvent(epoch uint64, total, remainder string, backdated, manual bool) *types.Event {
	return &types.Event{
		Type: EventTypeRewardsDistributed,
		Attributes: map[string]string{
			"epoch":     strconv.FormatUint(epoch, 10),
			"total":     total,
			"remainder": remainder,
			"backdated": strconv.FormatBool(backdated),
			"manual":    strconv.FormatBool(manual),
		},
	}
}

// PoolContributionEvent announces funding of the active epoch pool.
func PoolContributionEvent(epoch uint64, caller, amount, pool string) *types.Event {
	return &types.Event{
		Type: EventTypePoolContribution,
		Attributes: map[string]string{
			"epoch":  strconv.FormatUint(epoch, 10),
			"caller": caller,
			"amount": amount,
			"pool":   pool,
		},
	}
}

// EpochRecoveredEvent announces a finalization through the recovery path. The
// pool attribute carries the preserved balance.
func EpochRecoveredEvent(epoch uint64, pool string) *types.Event {
	return &types.Event{
		Type: EventTypeEpochRecovered,
		Attributes: map[string]string{
			"epoch": strconv.FormatUint(epoch, 10),
			"pool":  pool,
		},
	}
}

// CallerUpdatedEvent announces an authorized-caller membership change.
func CallerUpdatedEvent(address string, authorized bool) *types.Event {
	return &types.Event{
		Type: EventTypeCallerUpdated,
		Attributes: map[string]string{
			"address":    address,
			"authorized": strconv.FormatBool(authorized),
		},
	}
}

// FactoryUpdatedEvent announces a factory role reassignment.
func FactoryUpdatedEvent(address string) *types.Event {
	return &types.Event{
		Type:       EventTypeFactoryUpdated,
		Attributes: map[string]string{"address": address},
	}
}

// SubmitterUpdatedEvent announces a leaderboard manager reassignment.
func SubmitterUpdatedEvent(address string) *types.Event {
	return &types.Event{
		Type:       EventTypeSubmitterUpdated,
		Attributes: map[string]string{"address": address},
	}
}

// RewardTableUpdatedEvent announces a new percentage table.
func RewardTableUpdatedEvent(table []uint64) *types.Event {
	parts := make([]string, len(table))
	for i, bps := range table {
		parts[i] = strconv.FormatUint(bps, 10)
	}
	return &types.Event{
		Type:       EventTypeRewardTableUpdated,
		Attributes: map[string]string{"tableBps": strings.Join(parts, ",")},
	}
}

// VaultWithdrawnEvent announces an emergency full-pool withdrawal.
func VaultWithdrawnEvent(to, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeVaultWithdrawn,
		Attributes: map[string]string{
			"to":     to,
			"amount": amount,
		},
	}
}
