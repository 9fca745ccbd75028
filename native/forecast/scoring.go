package forecast

import "math/big"

// The scoring functions are pure and total: every input maps to a value,
// divisions by zero are pre-empted with explicit floor/ceiling returns.
// Multipliers and scores use a fixed-point scale where ScoreUnit equals 1.0.
const (
	// ScoreUnit is the fixed-point unit: 1,000,000 represents 1.0.
	ScoreUnit = int64(1_000_000)

	// Market size weight ramps linearly from 0.5x at zero volume to 2.0x at
	// the volume ceiling and is clipped there.
	minMarketWeight     = ScoreUnit / 2
	maxMarketWeight     = 2 * ScoreUnit
	weightVolumeCeiling = 1_500 * ScoreUnit

	// Early positions earn up to 2.0x, decaying to 1.0x across the epoch's
	// nominal duration.
	maxEarlyBonus = 2 * ScoreUnit
	minEarlyBonus = ScoreUnit

	// Contrarian positions earn up to 2.0x; consensus positions floor at 1.0x.
	maxCorrectnessMultiplier = 2 * ScoreUnit
	minCorrectnessMultiplier = ScoreUnit

	// Creator scoring: a flat base plus linear volume and activity bonuses.
	creatorBaseScore     = 100 * ScoreUnit
	creatorVolumeDivisor = 100 // 1 FP per 100 volume units
	creatorTradeScore    = 5 * ScoreUnit
)

var (
	scoreUnitBig = big.NewInt(ScoreUnit)
	// scoreRescale is the cube of the fixed-point unit, dividing out the three
	// stacked multipliers in a trader score.
	scoreRescale = new(big.Int).Mul(new(big.Int).Mul(scoreUnitBig, scoreUnitBig), scoreUnitBig)
)

// MarketSizeWeight returns the volume-based weight multiplier. Zero volume
// yields the 0.5x floor; the ramp is clipped at the 2.0x ceiling.
func MarketSizeWeight(volume *big.Int) *big.Int {
	if volume == nil || volume.Sign() <= 0 {
		return big.NewInt(minMarketWeight)
	}
	span := big.NewInt(maxMarketWeight - minMarketWeight)
	weight := new(big.Int).Mul(volume, span)
	weight.Div(weight, big.NewInt(weightVolumeCeiling))
	weight.Add(weight, big.NewInt(minMarketWeight))
	if weight.Cmp(big.NewInt(maxMarketWeight)) > 0 {
		return big.NewInt(maxMarketWeight)
	}
	return weight
}

// EarlyBonus returns 2.0x for positions opened at or before market creation,
// 1.0x at or after the nominal duration boundary, and interpolates linearly in
// between based on the elapsed fraction of the duration.
func EarlyBonus(positionTime, creationTime, duration int64) *big.Int {
	if positionTime <= creationTime {
		return big.NewInt(maxEarlyBonus)
	}
	if duration <= 0 {
		return big.NewInt(minEarlyBonus)
	}
	elapsed := positionTime - creationTime
	if elapsed >= duration {
		return big.NewInt(minEarlyBonus)
	}
	decay := new(big.Int).Mul(big.NewInt(elapsed), scoreUnitBig)
	decay.Div(decay, big.NewInt(duration))
	return new(big.Int).Sub(big.NewInt(maxEarlyBonus), decay)
}

// CorrectnessMultiplier rewards positions taken against the consensus:
// 1.0 + (1.0 - correctShare), clipped to [1.0x, 2.0x]. Zero total liquidity
// yields the 1.0x floor.
func CorrectnessMultiplier(correctSideLiquidity, totalLiquidity *big.Int) *big.Int {
	if totalLiquidity == nil || totalLiquidity.Sign() <= 0 {
		return big.NewInt(minCorrectnessMultiplier)
	}
	correct := correctSideLiquidity
	if correct == nil || correct.Sign() < 0 {
		correct = big.NewInt(0)
	}
	share := new(big.Int).Mul(correct, scoreUnitBig)
	share.Div(share, totalLiquidity)
	multiplier := new(big.Int).Sub(big.NewInt(maxCorrectnessMultiplier), share)
	if multiplier.Cmp(big.NewInt(maxCorrectnessMultiplier)) > 0 {
		return big.NewInt(maxCorrectnessMultiplier)
	}
	if multiplier.Cmp(big.NewInt(minCorrectnessMultiplier)) < 0 {
		return big.NewInt(minCorrectnessMultiplier)
	}
	return multiplier
}

// TraderScore composes position size with the three fixed-point multipliers
// and rescales once by the cube of the unit.
func TraderScore(positionSize, volume *big.Int, positionTime, creationTime, duration int64, correctSideLiquidity, totalLiquidity *big.Int) *big.Int {
	if positionSize == nil || positionSize.Sign() <= 0 {
		return big.NewInt(0)
	}
	score := new(big.Int).Set(positionSize)
	score.Mul(score, MarketSizeWeight(volume))
	score.Mul(score, EarlyBonus(positionTime, creationTime, duration))
	score.Mul(score, CorrectnessMultiplier(correctSideLiquidity, totalLiquidity))
	return score.Div(score, scoreRescale)
}

// CreatorScore is a flat base plus simple linear volume and activity bonuses.
func CreatorScore(volume *big.Int, tradeCount uint64) *big.Int {
	score := big.NewInt(creatorBaseScore)
	if volume != nil && volume.Sign() > 0 {
		bonus := new(big.Int).Div(volume, big.NewInt(creatorVolumeDivisor))
		score.Add(score, bonus)
	}
	if tradeCount > 0 {
		activity := new(big.Int).SetUint64(tradeCount)
		activity.Mul(activity, big.NewInt(creatorTradeScore))
		score.Add(score, activity)
	}
	return score
}
