package character

import "github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"

// StatModifier derives a stat's modifier from its four-dice total.
// The division floors toward negative infinity, so a total of 4 maps
// to -5 and a total of 24 maps to +5.
func StatModifier(total int) int {
	return floorDiv(total-13, 2)
}

// StartingMoney projects the sheet's opening budget: the base plus
// stipends per charisma, intellect, and wisdom modifier point, floored
// at the configured minimum.
func (s Sheet) StartingMoney(cfg rules.Config) int64 {
	money := cfg.BaseMoney +
		int64(s.Mod(StatCharisma))*cfg.CharismaStipend +
		int64(s.Mod(StatIntellect))*cfg.IntellectStipend +
		int64(s.Mod(StatWisdom))*cfg.WisdomStipend
	if money < cfg.MinStartingMoney {
		money = cfg.MinStartingMoney
	}
	return money
}

// BudgetScale derives the multiplier applied to every client budget so
// tier thresholds stay reachable across stat distributions.
func BudgetScale(startingMoney int64, cfg rules.Config) float64 {
	scale := float64(startingMoney) / float64(cfg.BaseMoney)
	if scale < cfg.BudgetScaleFloor {
		scale = cfg.BudgetScaleFloor
	}
	return scale
}

// Resilience is the setback absorption granted by constitution, never
// negative.
func (s Sheet) Resilience(cfg rules.Config) int64 {
	adjustment := int64(s.Mod(StatConstitution)) * cfg.ResilienceUnit
	if adjustment < 0 {
		return 0
	}
	return adjustment
}

// ReduceLoss absorbs part of a setback. The result never drops below
// zero and never exceeds the original loss.
func ReduceLoss(loss, shield int64) int64 {
	if loss <= 0 {
		return 0
	}
	if shield <= 0 {
		return loss
	}
	reduced := loss - shield
	if reduced < 0 {
		return 0
	}
	return reduced
}

// BasePitchModifier is the stat part of a pitch roll's bonus: the better
// of charisma and the territory's favored stat, plus intellect from the
// second round on. Ledger buffs are added by the negotiation engine.
func (s Sheet) BasePitchModifier(round int, favored Stat) int {
	mod := s.Mod(StatCharisma)
	if favoredMod := s.Mod(favored); favoredMod > mod {
		mod = favoredMod
	}
	if round >= 2 {
		mod += s.Mod(StatIntellect)
	}
	return mod
}

// ClosingBonus is the strength-driven adjustment added to every
// successful pitch's value. It can be negative.
func (s Sheet) ClosingBonus(cfg rules.Config) int64 {
	return int64(s.Mod(StatStrength)) * cfg.ClosingBonusUnit
}

// BodyShift is the read-the-room adjustment applied to the raw
// body-language die: half of dexterity, plus half of wisdom from the
// second round on. Halves floor toward negative infinity.
func (s Sheet) BodyShift(round int) int {
	shift := floorDiv(s.Mod(StatDexterity), 2)
	if round >= 2 {
		shift += floorDiv(s.Mod(StatWisdom), 2)
	}
	return shift
}

// floorDiv divides flooring toward negative infinity. The divisor must
// be positive.
func floorDiv(a, b int) int {
	quotient := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		quotient--
	}
	return quotient
}
