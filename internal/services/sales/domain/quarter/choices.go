package quarter

import (
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
)

func choiceInvalid(choice string) error {
	return apperrors.WithMetadata(apperrors.CodeChoiceInvalid, "unknown choice", map[string]string{
		"choice": choice,
	})
}

// TravelChoice is the first-trip transport decision.
type TravelChoice int

const (
	// TravelUnspecified represents an invalid travel choice.
	TravelUnspecified TravelChoice = iota
	// TravelFlight is fast and expensive, arriving sharp.
	TravelFlight
	// TravelTrain is the middle road.
	TravelTrain
	// TravelCar is cheap and wearing.
	TravelCar
)

func (c TravelChoice) String() string {
	switch c {
	case TravelFlight:
		return "flight"
	case TravelTrain:
		return "train"
	case TravelCar:
		return "car"
	default:
		return "unspecified"
	}
}

// ParseTravelChoice maps a wire-level travel name to its enum value.
func ParseTravelChoice(name string) (TravelChoice, error) {
	switch name {
	case "flight":
		return TravelFlight, nil
	case "train":
		return TravelTrain, nil
	case "car":
		return TravelCar, nil
	default:
		return TravelUnspecified, choiceInvalid(name)
	}
}

// travelOption is one transport's cost and side effect. The cost is a
// deliberate spend, so resilience never reduces it.
type travelOption struct {
	cost  int64
	grant *modifier.Modifier
}

func travelOptionFor(c TravelChoice) (travelOption, bool) {
	switch c {
	case TravelFlight:
		return travelOption{
			cost: 900,
			grant: &modifier.Modifier{
				Description: "arrived sharp",
				Kind:        modifier.KindBuff,
				Effect:      modifier.EffectPitch,
				Value:       1,
				Source:      modifier.SourceTravel,
				Scope:       modifier.ScopePhases,
				Remaining:   2,
			},
		}, true
	case TravelTrain:
		return travelOption{cost: 400}, true
	case TravelCar:
		return travelOption{
			cost: 150,
			grant: &modifier.Modifier{
				Description: "road fatigue",
				Kind:        modifier.KindDebuff,
				Effect:      modifier.EffectPitch,
				Value:       -1,
				Source:      modifier.SourceTravel,
				Scope:       modifier.ScopePhases,
				Remaining:   2,
			},
		}, true
	default:
		return travelOption{}, false
	}
}

// CrossroadsChoice is the evening-at-the-crossroads decision. Each
// choice checks a different stat against the same DC.
type CrossroadsChoice int

const (
	// CrossroadsUnspecified represents an invalid crossroads choice.
	CrossroadsUnspecified CrossroadsChoice = iota
	// CrossroadsDinner wines the prospect on charisma.
	CrossroadsDinner
	// CrossroadsGift spends money up front and banks on wisdom.
	CrossroadsGift
	// CrossroadsResearch studies the whale on intellect.
	CrossroadsResearch
)

func (c CrossroadsChoice) String() string {
	switch c {
	case CrossroadsDinner:
		return "dinner"
	case CrossroadsGift:
		return "gift"
	case CrossroadsResearch:
		return "research"
	default:
		return "unspecified"
	}
}

// ParseCrossroadsChoice maps a wire-level crossroads name to its enum value.
func ParseCrossroadsChoice(name string) (CrossroadsChoice, error) {
	switch name {
	case "dinner":
		return CrossroadsDinner, nil
	case "gift":
		return CrossroadsGift, nil
	case "research":
		return CrossroadsResearch, nil
	default:
		return CrossroadsUnspecified, choiceInvalid(name)
	}
}

// Stat returns the stat the choice's check rolls with.
func (c CrossroadsChoice) Stat() character.Stat {
	switch c {
	case CrossroadsDinner:
		return character.StatCharisma
	case CrossroadsGift:
		return character.StatWisdom
	default:
		return character.StatIntellect
	}
}

// Crossroads payouts. Fixed game content, not tuning.
const (
	crossroadsDinnerReward  = 1200
	crossroadsDinnerSetback = 400
	crossroadsGiftCost      = 500
	crossroadsGiftReward    = 2000
)

// researchGrant is the long-lived pitch buff a successful research
// check inserts; it stays alive through the whale negotiation.
func researchGrant() modifier.Modifier {
	return modifier.Modifier{
		Description: "studied the whale",
		Kind:        modifier.KindBuff,
		Effect:      modifier.EffectPitch,
		Value:       2,
		Source:      modifier.SourceCrossroads,
		Scope:       modifier.ScopePhases,
		Remaining:   5,
	}
}

// Strategy is the VP-meeting posture for the whale deal.
type Strategy int

const (
	// StrategyUnspecified represents an invalid strategy value.
	StrategyUnspecified Strategy = iota
	// StrategySteady keeps the whale payout at face value.
	StrategySteady
	// StrategyBold raises the whale payout by a quarter.
	StrategyBold
	// StrategyAllIn raises the payout by half and unlocks the
	// legendary tier, at the price of a penalty if the whale pays
	// nothing.
	StrategyAllIn
)

func (s Strategy) String() string {
	switch s {
	case StrategySteady:
		return "steady"
	case StrategyBold:
		return "bold"
	case StrategyAllIn:
		return "all-in"
	default:
		return "unspecified"
	}
}

// ParseStrategy maps a wire-level strategy name to its enum value.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "steady":
		return StrategySteady, nil
	case "bold":
		return StrategyBold, nil
	case "all-in":
		return StrategyAllIn, nil
	default:
		return StrategyUnspecified, choiceInvalid(name)
	}
}

// MultiplierPercent is the whale payout multiplier in integer percent.
func (s Strategy) MultiplierPercent() int64 {
	switch s {
	case StrategyBold:
		return 125
	case StrategyAllIn:
		return 150
	default:
		return 100
	}
}

// UnlocksLegendary reports whether the strategy makes the legendary
// tier reachable.
func (s Strategy) UnlocksLegendary() bool {
	return s == StrategyAllIn
}
