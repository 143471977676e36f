// Package negotiation resolves the round-based sub-game against one
// client. Each round admits exactly one action; every die the engine
// needs comes from the caller's roller, so the whole exchange replays
// identically from the same seed pair.
package negotiation

import (
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
)

var (
	// ErrInactive indicates an action against a concluded negotiation.
	ErrInactive = apperrors.New(apperrors.CodeNegotiationInactive, "negotiation is not active")
	// ErrActionUnknown indicates an unrecognized action name.
	ErrActionUnknown = apperrors.New(apperrors.CodeActionInvalid, "unknown negotiation action")
)

// Action is a player move within a negotiation round.
type Action int

const (
	// ActionUnspecified represents an invalid action value.
	ActionUnspecified Action = iota
	// ActionPitch rolls against the client's resistance.
	ActionPitch
	// ActionListen banks a pitch bonus for the next attempt.
	ActionListen
	// ActionConcede closes the deal at a reduced payout.
	ActionConcede
	// ActionAbility invokes the character's spirit animal.
	ActionAbility
)

func (a Action) String() string {
	switch a {
	case ActionPitch:
		return "pitch"
	case ActionListen:
		return "listen"
	case ActionConcede:
		return "concede"
	case ActionAbility:
		return "ability"
	default:
		return "unspecified"
	}
}

// ParseAction maps a wire-level action name to its enum value.
func ParseAction(name string) (Action, error) {
	switch name {
	case "pitch":
		return ActionPitch, nil
	case "listen":
		return ActionListen, nil
	case "concede":
		return ActionConcede, nil
	case "ability":
		return ActionAbility, nil
	default:
		return ActionUnspecified, apperrors.WithMetadata(apperrors.CodeActionInvalid, "unknown negotiation action", map[string]string{
			"action": name,
		})
	}
}

// Status is the lifecycle state of a negotiation.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusActive means the client is still at the table.
	StatusActive
	// StatusClosed means the deal was conceded and paid out.
	StatusClosed
	// StatusLost means patience ran out; the deal pays nothing.
	StatusLost
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	case StatusLost:
		return "lost"
	default:
		return "unspecified"
	}
}

// BodyRead is the client's body language after the character's read.
type BodyRead int

const (
	// BodyUnspecified represents an invalid body-language value.
	BodyUnspecified BodyRead = iota
	// BodyArmsCrossed costs extra patience and hardens resistance.
	BodyArmsCrossed
	// BodySkeptical hardens resistance.
	BodySkeptical
	// BodyNeutral changes nothing.
	BodyNeutral
	// BodyInterested softens resistance.
	BodyInterested
	// BodyEngaged softens resistance and sweetens the running deal.
	BodyEngaged
)

func (b BodyRead) String() string {
	switch b {
	case BodyArmsCrossed:
		return "arms-crossed"
	case BodySkeptical:
		return "skeptical"
	case BodyNeutral:
		return "neutral"
	case BodyInterested:
		return "interested"
	case BodyEngaged:
		return "engaged"
	default:
		return "unspecified"
	}
}

// readForDie maps a shifted, clamped body die to its read.
func readForDie(die int) BodyRead {
	switch die {
	case 1:
		return BodyArmsCrossed
	case 2:
		return BodySkeptical
	case 3, 4:
		return BodyNeutral
	case 5:
		return BodyInterested
	case 6:
		return BodyEngaged
	default:
		return BodyUnspecified
	}
}

// PitchReport describes one pitch attempt.
type PitchReport struct {
	Roll       int   `json:"roll"`
	Modifier   int   `json:"modifier"`
	Total      int   `json:"total"`
	Resistance int   `json:"resistance"`
	Margin     int   `json:"margin"`
	Success    bool  `json:"success"`
	Value      int64 `json:"value"`
}

// BodyReport describes the body-language die rolled alongside a pitch
// or listen. Calmed marks a hostile read neutralized by a calm effect.
type BodyReport struct {
	Roll    int      `json:"roll"`
	Shifted int      `json:"shifted"`
	Read    BodyRead `json:"read"`
	Calmed  bool     `json:"calmed,omitempty"`
}

// AbilityReport describes a spirit invocation. Money is credited by the
// game, not the encounter; Grant is the ledger entry added, if any.
type AbilityReport struct {
	Spirit character.Spirit   `json:"spirit"`
	Money  int64              `json:"money,omitempty"`
	Grant  *modifier.Modifier `json:"grant,omitempty"`
}

// Result is the structured outcome of one negotiation action, with the
// client's state after the action.
type Result struct {
	Action     Action         `json:"action"`
	Round      int            `json:"round"`
	Pitch      *PitchReport   `json:"pitch,omitempty"`
	Body       *BodyReport    `json:"body,omitempty"`
	Ability    *AbilityReport `json:"ability,omitempty"`
	Payout     int64          `json:"payout"`
	Status     Status         `json:"status"`
	Patience   int            `json:"patience"`
	Resistance int            `json:"resistance"`
	DealValue  int64          `json:"deal_value"`
}
