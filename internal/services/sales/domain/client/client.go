// Package client models negotiation opponents: per-territory templates
// scaled to the character's budget, instantiated once per encounter.
package client

import (
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
)

// Territory is the assigned sales region. Each territory favors one
// stat and fields its own client roster.
type Territory int

const (
	// TerritoryUnspecified represents an invalid territory value.
	TerritoryUnspecified Territory = iota
	// TerritoryTech favors intellect.
	TerritoryTech
	// TerritoryRetail favors charisma.
	TerritoryRetail
	// TerritoryFinance favors wisdom.
	TerritoryFinance
)

func (t Territory) String() string {
	switch t {
	case TerritoryTech:
		return "tech"
	case TerritoryRetail:
		return "retail"
	case TerritoryFinance:
		return "finance"
	default:
		return "unspecified"
	}
}

// FavoredStat is the stat a territory's pitches lean on.
func (t Territory) FavoredStat() character.Stat {
	switch t {
	case TerritoryTech:
		return character.StatIntellect
	case TerritoryRetail:
		return character.StatCharisma
	case TerritoryFinance:
		return character.StatWisdom
	default:
		return character.StatCharisma
	}
}

// TerritoryFromRoll maps a d6 to a territory by thirds: 1-2 tech,
// 3-4 retail, 5-6 finance.
func TerritoryFromRoll(roll int) Territory {
	switch {
	case roll >= 1 && roll <= 2:
		return TerritoryTech
	case roll >= 3 && roll <= 4:
		return TerritoryRetail
	case roll >= 5 && roll <= 6:
		return TerritoryFinance
	default:
		return TerritoryUnspecified
	}
}

// Stakes separates the ordinary first client from the whale.
type Stakes int

const (
	// StakesUnspecified represents an invalid stakes value.
	StakesUnspecified Stakes = iota
	// StakesOrdinary is the first-client encounter.
	StakesOrdinary
	// StakesWhale is the quarter-closing encounter.
	StakesWhale
)

func (s Stakes) String() string {
	switch s {
	case StakesOrdinary:
		return "ordinary"
	case StakesWhale:
		return "whale"
	default:
		return "unspecified"
	}
}

// Client is the mutable opponent for one negotiation.
type Client struct {
	Name        string    `json:"name"`
	Territory   Territory `json:"territory"`
	Stakes      Stakes    `json:"stakes"`
	Budget      int64     `json:"budget"`
	Resistance  int       `json:"resistance"`
	Patience    int       `json:"patience"`
	MaxPatience int       `json:"max_patience"`
	DealValue   int64     `json:"deal_value"`
	Active      bool      `json:"active"`
}

// template holds the unscaled numbers behind one client tier.
type template struct {
	budget     int64
	resistance int
	patience   int
}

func blueprint(t Territory, s Stakes) template {
	switch t {
	case TerritoryTech:
		if s == StakesWhale {
			return template{budget: 14000, resistance: 14, patience: 6}
		}
		return template{budget: 2800, resistance: 11, patience: 5}
	case TerritoryRetail:
		if s == StakesWhale {
			return template{budget: 11000, resistance: 12, patience: 7}
		}
		return template{budget: 2200, resistance: 9, patience: 6}
	case TerritoryFinance:
		if s == StakesWhale {
			return template{budget: 13000, resistance: 13, patience: 6}
		}
		return template{budget: 2600, resistance: 10, patience: 5}
	default:
		return template{}
	}
}

// New instantiates a client from its territory template, scaling the
// budget by the game's budget scale.
func New(t Territory, s Stakes, budgetScale float64, name string) Client {
	tpl := blueprint(t, s)
	return Client{
		Name:        name,
		Territory:   t,
		Stakes:      s,
		Budget:      int64(float64(tpl.budget) * budgetScale),
		Resistance:  tpl.resistance,
		Patience:    tpl.patience,
		MaxPatience: tpl.patience,
		Active:      true,
	}
}

// SpendPatience consumes patience points, clamping at zero. The client
// deactivates the moment patience reaches zero.
func (c *Client) SpendPatience(points int) {
	if points <= 0 {
		return
	}
	c.Patience -= points
	if c.Patience <= 0 {
		c.Patience = 0
		c.Active = false
	}
}

// LowerResistance reduces resistance without dropping below the floor.
// A resistance already at or under the floor stays put.
func (c *Client) LowerResistance(points, floor int) {
	if points <= 0 {
		return
	}
	lowered := c.Resistance - points
	if lowered < floor {
		lowered = floor
	}
	if lowered < c.Resistance {
		c.Resistance = lowered
	}
}

// RaiseResistance increases resistance. No ceiling applies.
func (c *Client) RaiseResistance(points int) {
	if points <= 0 {
		return
	}
	c.Resistance += points
}

// AddDeal accumulates deal value. Negative amounts are ignored; the
// deal value never drops below zero.
func (c *Client) AddDeal(value int64) {
	if value <= 0 {
		return
	}
	c.DealValue += value
}

// Close deactivates the client once the negotiation concludes.
func (c *Client) Close() {
	c.Active = false
}
