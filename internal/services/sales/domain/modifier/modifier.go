// Package modifier tracks time-boxed buffs and debuffs on a running game.
//
// Every modifier names a closed effect variant and a closed source
// category, so consumers match exhaustively instead of inspecting
// description strings. Expiry is clock-specific: phase-scoped entries
// tick at phase advance, round-scoped entries at the end of each
// negotiation round, pitch-scoped entries as pitches consume them, and
// encounter-scoped entries live until the negotiation concludes.
package modifier

// Kind distinguishes favorable from unfavorable modifiers.
type Kind int

const (
	// KindUnspecified represents an invalid kind value.
	KindUnspecified Kind = iota
	// KindBuff marks a favorable modifier.
	KindBuff
	// KindDebuff marks an unfavorable modifier.
	KindDebuff
)

func (k Kind) String() string {
	switch k {
	case KindBuff:
		return "buff"
	case KindDebuff:
		return "debuff"
	default:
		return "unspecified"
	}
}

// Effect is the closed set of things a modifier can change.
type Effect int

const (
	// EffectUnspecified represents an invalid effect value.
	EffectUnspecified Effect = iota
	// EffectPitch adds its value to pitch roll totals.
	EffectPitch
	// EffectDeal adds its value to each successful pitch's deal value.
	EffectDeal
	// EffectBodyCalm reads hostile body language as neutral.
	EffectBodyCalm
	// EffectResistHold prevents client resistance from rising.
	EffectResistHold
	// EffectConcedeFull pays the full deal value on concede.
	EffectConcedeFull
	// EffectPatienceGuard suppresses body-language patience loss.
	EffectPatienceGuard
)

func (e Effect) String() string {
	switch e {
	case EffectPitch:
		return "pitch"
	case EffectDeal:
		return "deal"
	case EffectBodyCalm:
		return "body-calm"
	case EffectResistHold:
		return "resist-hold"
	case EffectConcedeFull:
		return "concede-full"
	case EffectPatienceGuard:
		return "patience-guard"
	default:
		return "unspecified"
	}
}

// Source is the closed set of modifier origins.
type Source int

const (
	// SourceUnspecified represents an invalid source value.
	SourceUnspecified Source = iota
	// SourceElement marks an element-granted modifier.
	SourceElement
	// SourceTravel marks a travel-choice modifier.
	SourceTravel
	// SourceJourney marks a journey-event modifier.
	SourceJourney
	// SourceListen marks the listen action's pitch buff.
	SourceListen
	// SourceSpirit marks a spirit-ability modifier.
	SourceSpirit
	// SourceHunt marks a whale-prep modifier.
	SourceHunt
	// SourceCrossroads marks a crossroads-choice modifier.
	SourceCrossroads
	// SourceLucky marks a lucky-item modifier.
	SourceLucky
)

func (s Source) String() string {
	switch s {
	case SourceElement:
		return "element"
	case SourceTravel:
		return "travel"
	case SourceJourney:
		return "journey"
	case SourceListen:
		return "listen"
	case SourceSpirit:
		return "spirit"
	case SourceHunt:
		return "hunt"
	case SourceCrossroads:
		return "crossroads"
	case SourceLucky:
		return "lucky"
	default:
		return "unspecified"
	}
}

// Scope is the clock that expires a modifier.
type Scope int

const (
	// ScopeUnspecified represents an invalid scope value.
	ScopeUnspecified Scope = iota
	// ScopePhases expires after Remaining phase advances.
	ScopePhases
	// ScopePitches expires after Remaining consuming pitches.
	ScopePitches
	// ScopeRounds expires after Remaining negotiation rounds.
	ScopeRounds
	// ScopeEncounter expires when the negotiation concludes.
	ScopeEncounter
)

func (s Scope) String() string {
	switch s {
	case ScopePhases:
		return "phases"
	case ScopePitches:
		return "pitches"
	case ScopeRounds:
		return "rounds"
	case ScopeEncounter:
		return "encounter"
	default:
		return "unspecified"
	}
}

// Modifier is one active buff or debuff. Value carries its sign: debuffs
// store negative values.
type Modifier struct {
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	Effect      Effect `json:"effect"`
	Value       int64  `json:"value"`
	Source      Source `json:"source"`
	Scope       Scope  `json:"scope"`
	// Remaining counts phase advances, pitches, or rounds left.
	// Encounter-scoped entries ignore it.
	Remaining int `json:"remaining"`
}
