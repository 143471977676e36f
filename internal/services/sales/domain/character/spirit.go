package character

import "github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"

// Spirit is the character's spirit animal, granting one ability use per
// game during a negotiation.
type Spirit int

const (
	// SpiritUnspecified represents an invalid spirit value.
	SpiritUnspecified Spirit = iota
	SpiritRat
	SpiritOx
	SpiritTiger
	SpiritRabbit
	SpiritDragon
	SpiritSnake
	SpiritHorse
	SpiritGoat
	SpiritMonkey
	SpiritRooster
	SpiritDog
	SpiritPig
)

func spiritFromRoll(value int) Spirit {
	if value < 1 || value > 12 {
		return SpiritUnspecified
	}
	return Spirit(value)
}

func (sp Spirit) String() string {
	switch sp {
	case SpiritRat:
		return "rat"
	case SpiritOx:
		return "ox"
	case SpiritTiger:
		return "tiger"
	case SpiritRabbit:
		return "rabbit"
	case SpiritDragon:
		return "dragon"
	case SpiritSnake:
		return "snake"
	case SpiritHorse:
		return "horse"
	case SpiritGoat:
		return "goat"
	case SpiritMonkey:
		return "monkey"
	case SpiritRooster:
		return "rooster"
	case SpiritDog:
		return "dog"
	case SpiritPig:
		return "pig"
	default:
		return "unspecified"
	}
}

// AbilityOutcome is the resolved effect of the one-time spirit ability:
// an immediate money award, a modifier insertion, or both never.
type AbilityOutcome struct {
	Money    int64
	Modifier *modifier.Modifier
}

// Ability resolves the spirit's effect. Seven spirits scale linearly
// with the wisdom modifier (negative wisdom scales as zero); the other
// five are fixed tactical effects.
func (sp Spirit) Ability(wisdomMod int) AbilityOutcome {
	w := int64(wisdomMod)
	if w < 0 {
		w = 0
	}

	switch sp {
	case SpiritRat:
		return AbilityOutcome{Money: 400 + 100*w}
	case SpiritOx:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "ox's persistence",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectDeal,
			Value:       100 + 25*w,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopeEncounter,
		}}
	case SpiritTiger:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "tiger's pounce",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectDeal,
			Value:       300 + 75*w,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopePitches,
			Remaining:   1,
		}}
	case SpiritRabbit:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "rabbit's poise",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectBodyCalm,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopeRounds,
			Remaining:   2,
		}}
	case SpiritDragon:
		return AbilityOutcome{Money: 600 + 150*w}
	case SpiritSnake:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "snake's whisper",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectPitch,
			Value:       5,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopePitches,
			Remaining:   1,
		}}
	case SpiritHorse:
		return AbilityOutcome{Money: 350 + 100*w}
	case SpiritGoat:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "goat's stubbornness",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectResistHold,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopeRounds,
			Remaining:   2,
		}}
	case SpiritMonkey:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "monkey's patter",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectPitch,
			Value:       2,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopePitches,
			Remaining:   1 + int(w),
		}}
	case SpiritRooster:
		return AbilityOutcome{Money: 300 + 150*w}
	case SpiritDog:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "dog's loyalty",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectConcedeFull,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopeEncounter,
		}}
	case SpiritPig:
		return AbilityOutcome{Modifier: &modifier.Modifier{
			Description: "pig's calm",
			Kind:        modifier.KindBuff,
			Effect:      modifier.EffectPatienceGuard,
			Source:      modifier.SourceSpirit,
			Scope:       modifier.ScopeRounds,
			Remaining:   2,
		}}
	default:
		return AbilityOutcome{}
	}
}
