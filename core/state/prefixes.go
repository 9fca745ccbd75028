package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"spredd/native/forecast"
)

const (
	currentEpochKeyStr     = "forecast/current"
	epochKeyFormat         = "forecast/epoch/%d"
	scoreKeyFormat         = "forecast/score/%d/%s/%x"
	lifetimeScoreKeyFormat = "forecast/lifetime/%s/%x"
	participantsKeyFormat  = "forecast/participants/%d/%s"
	topPerformersKeyFormat = "forecast/top/%d/%s"
	pendingIndexKeyStr     = "forecast/pending"
	authorizedCallerFormat = "forecast/caller/%x"
	rewardTableKeyStr      = "forecast/rewardtable"
	accountKeyFormat       = "account/%x"
)

func currentEpochKey() []byte { return []byte(currentEpochKeyStr) }

func epochKey(index uint64) []byte {
	return []byte(fmt.Sprintf(epochKeyFormat, index))
}

func scoreKey(epoch uint64, role forecast.Role, addr common.Address) []byte {
	return []byte(fmt.Sprintf(scoreKeyFormat, epoch, role, addr))
}

func lifetimeScoreKey(role forecast.Role, addr common.Address) []byte {
	return []byte(fmt.Sprintf(lifetimeScoreKeyFormat, role, addr))
}

func participantsKey(epoch uint64, role forecast.Role) []byte {
	return []byte(fmt.Sprintf(participantsKeyFormat, epoch, role))
}

func topPerformersKey(epoch uint64, role forecast.Role) []byte {
	return []byte(fmt.Sprintf(topPerformersKeyFormat, epoch, role))
}

func authorizedCallerKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf(authorizedCallerFormat, addr))
}

func pendingIndexKey() []byte { return []byte(pendingIndexKeyStr) }

func rewardTableKey() []byte { return []byte(rewardTableKeyStr) }

func accountKey(addr common.Address) []byte {
	return []byte(fmt.Sprintf(accountKeyFormat, addr))
}
