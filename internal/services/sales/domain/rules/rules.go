// Package rules carries the tunable scalars of the sales game.
//
// A Config is an immutable value handed to the engine at game creation.
// Multiple games with different tunings can run in the same process; no
// package-level state exists. Enumerated outcome tables (territory
// templates, travel options, event tables, element and spirit effects)
// are closed Go types in their own packages, not configuration.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
)

// Config is the full set of scalar tuning knobs.
type Config struct {
	// Starting-money projection.
	BaseMoney        int64 `yaml:"base_money"`
	MinStartingMoney int64 `yaml:"min_starting_money"`
	CharismaStipend  int64 `yaml:"charisma_stipend"`
	IntellectStipend int64 `yaml:"intellect_stipend"`
	WisdomStipend    int64 `yaml:"wisdom_stipend"`

	// Client budget scaling.
	BudgetScaleFloor float64 `yaml:"budget_scale_floor"`

	// Per-stat units.
	ResilienceUnit   int64 `yaml:"resilience_unit"`
	ClosingBonusUnit int64 `yaml:"closing_bonus_unit"`

	// Pitch economics, expressed in integer percent so value derivation
	// stays in int64 arithmetic.
	PitchBasePercent       int64 `yaml:"pitch_base_percent"`
	PitchMarginStepPercent int64 `yaml:"pitch_margin_step_percent"`
	PitchMarginCapPercent  int64 `yaml:"pitch_margin_cap_percent"`
	MinPitchValue          int64 `yaml:"min_pitch_value"`
	ConcedePercent         int64 `yaml:"concede_percent"`

	// Negotiation table floors and fixed bonuses.
	ListenPitchBonus int `yaml:"listen_pitch_bonus"`
	MinResistance    int `yaml:"min_resistance"`

	// Phase checks and penalties.
	CrossroadsDC int   `yaml:"crossroads_dc"`
	AllInPenalty int64 `yaml:"all_in_penalty"`

	// Tier thresholds as ratios of final to starting money.
	PromotionThreshold float64 `yaml:"promotion_threshold"`
	LegendaryThreshold float64 `yaml:"legendary_threshold"`
}

// Default returns the standard tuning.
func Default() Config {
	return Config{
		BaseMoney:        10000,
		MinStartingMoney: 2500,
		CharismaStipend:  2000,
		IntellectStipend: 1000,
		WisdomStipend:    500,

		BudgetScaleFloor: 0.5,

		ResilienceUnit:   100,
		ClosingBonusUnit: 100,

		PitchBasePercent:       15,
		PitchMarginStepPercent: 5,
		PitchMarginCapPercent:  25,
		MinPitchValue:          50,
		ConcedePercent:         80,

		ListenPitchBonus: 2,
		MinResistance:    5,

		CrossroadsDC: 12,
		AllInPenalty: 3000,

		PromotionThreshold: 2.0,
		LegendaryThreshold: 3.0,
	}
}

// Validate reports the first inconsistency in the configuration.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.BaseMoney > 0, "base_money must be positive"},
		{c.MinStartingMoney > 0, "min_starting_money must be positive"},
		{c.BudgetScaleFloor > 0, "budget_scale_floor must be positive"},
		{c.ResilienceUnit >= 0, "resilience_unit must not be negative"},
		{c.PitchBasePercent > 0, "pitch_base_percent must be positive"},
		{c.PitchMarginStepPercent >= 0, "pitch_margin_step_percent must not be negative"},
		{c.PitchMarginCapPercent >= c.PitchMarginStepPercent, "pitch_margin_cap_percent must not be below the step"},
		{c.MinPitchValue > 0, "min_pitch_value must be positive"},
		{c.ConcedePercent > 0 && c.ConcedePercent <= 100, "concede_percent must be within (0, 100]"},
		{c.MinResistance >= 1, "min_resistance must be at least 1"},
		{c.CrossroadsDC >= 1, "crossroads_dc must be at least 1"},
		{c.AllInPenalty >= 0, "all_in_penalty must not be negative"},
		{c.PromotionThreshold > 1, "promotion_threshold must exceed 1"},
		{c.LegendaryThreshold > c.PromotionThreshold, "legendary_threshold must exceed promotion_threshold"},
	}
	for _, check := range checks {
		if !check.ok {
			return apperrors.New(apperrors.CodeRulesInvalid, check.what)
		}
	}
	return nil
}

// LoadFile reads a YAML tuning file over the defaults. Missing keys keep
// their default values.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.CodeRulesInvalid, "parse rules file", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
