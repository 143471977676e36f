package character

// Element is a permanent passive trait evaluated at fixed trigger
// points, never stored in the modifier ledger.
type Element int

const (
	// ElementNone grants no passive.
	ElementNone Element = iota
	// ElementWood earns flat income at every phase advance.
	ElementWood
	// ElementFire boosts the game's first closed deal.
	ElementFire
	// ElementEarth shields part of every setback.
	ElementEarth
	// ElementMetal adds a flat bonus to every closed deal.
	ElementMetal
	// ElementWater adds a share of every closed deal.
	ElementWater
)

// Passive magnitudes. Fixed game content, not tuning.
const (
	woodPhaseIncome      = 150
	fireFirstDealPercent = 25
	earthSetbackShield   = 300
	metalDealBonus       = 200
	waterDealPercent     = 10
)

func elementFromRoll(value int) Element {
	if value < 1 || value > 6 {
		return ElementNone
	}
	return Element(value - 1)
}

func (e Element) String() string {
	switch e {
	case ElementNone:
		return "none"
	case ElementWood:
		return "wood"
	case ElementFire:
		return "fire"
	case ElementEarth:
		return "earth"
	case ElementMetal:
		return "metal"
	case ElementWater:
		return "water"
	default:
		return "unknown"
	}
}

// PhaseIncome is the flat money granted at each phase advance.
func (e Element) PhaseIncome() int64 {
	if e == ElementWood {
		return woodPhaseIncome
	}
	return 0
}

// SetbackShield is subtracted from every setback before constitution
// resilience applies.
func (e Element) SetbackShield() int64 {
	if e == ElementEarth {
		return earthSetbackShield
	}
	return 0
}

// DealBonus is the extra money granted when a deal closes with a
// positive payout. firstDeal marks the game's first closed deal.
func (e Element) DealBonus(payout int64, firstDeal bool) int64 {
	if payout <= 0 {
		return 0
	}
	switch e {
	case ElementFire:
		if firstDeal {
			return payout * fireFirstDealPercent / 100
		}
		return 0
	case ElementMetal:
		return metalDealBonus
	case ElementWater:
		return payout * waterDealPercent / 100
	default:
		return 0
	}
}
