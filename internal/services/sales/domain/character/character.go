// Package character models the rolled sales character: six stats derived
// from four dice each, an element, a spirit animal, and the seed pair
// that proves the roll. It also carries the stat-to-economy projections
// the engine applies during a game.
package character

import (
	"fmt"
	"strings"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
)

// Stat indexes the six character stats.
type Stat int

const (
	// StatStrength feeds the closing bonus.
	StatStrength Stat = iota
	// StatDexterity feeds the body-language shift.
	StatDexterity
	// StatConstitution feeds setback resilience.
	StatConstitution
	// StatIntellect feeds late-round pitches and the Tech territory.
	StatIntellect
	// StatWisdom feeds the starting stipend, spirit scaling, and Finance.
	StatWisdom
	// StatCharisma feeds the starting stipend, pitches, and Retail.
	StatCharisma

	// NumStats is the count of stats on a sheet.
	NumStats = 6
)

var statLabels = [NumStats]string{"str", "dex", "con", "int", "wis", "cha"}

func (s Stat) String() string {
	if s < 0 || s >= NumStats {
		return "unknown"
	}
	return statLabels[s]
}

// Sex is a cosmetic character trait.
type Sex int

const (
	// SexUnspecified represents an invalid sex value.
	SexUnspecified Sex = iota
	// SexFemale is rolled on a 1.
	SexFemale
	// SexMale is rolled on a 2.
	SexMale
)

func (s Sex) String() string {
	switch s {
	case SexFemale:
		return "female"
	case SexMale:
		return "male"
	default:
		return "unspecified"
	}
}

var (
	// ErrNameEmpty indicates a missing character name.
	ErrNameEmpty = apperrors.New(apperrors.CodeCharacterNameEmpty, "character name is required")
	// ErrTampered indicates a sheet that fails seed re-derivation.
	ErrTampered = apperrors.New(apperrors.CodeCharacterTampered, "character sheet does not match its seed pair")
)

// StatLine is one stat's roll: four raw dice, their total, and the
// derived modifier. Immutable once rolled.
type StatLine struct {
	Dice     [4]int `json:"dice"`
	Total    int    `json:"total"`
	Modifier int    `json:"modifier"`
}

// Sheet is a fully rolled character. Every field derives from the
// verification seed pair; VerifySheet re-derives and audits it.
type Sheet struct {
	Name         string             `json:"name"`
	Stats        [NumStats]StatLine `json:"stats"`
	Element      Element            `json:"element"`
	Spirit       Spirit             `json:"spirit"`
	Sex          Sex                `json:"sex"`
	Verification fairroll.SeedPair  `json:"verification"`
}

// Mod returns the modifier for one stat.
func (s Sheet) Mod(stat Stat) int {
	return s.Stats[stat].Modifier
}

// RollHeight returns the block height the sheet was rolled against.
func (s Sheet) RollHeight() uint64 {
	return s.Verification.BlockHeight
}

// RollSheet derives a complete character from a seed source.
//
// Labels: each stat draws four d6 rolls under "<stat>:1" through
// "<stat>:4" (stats in STR, DEX, CON, INT, WIS, CHA order), the element
// draws "element" (d6), the spirit animal "spirit" (d12), and the sex
// "sex" (d2). The source's seed pair is recorded on the sheet as its
// verification block.
func RollSheet(src *fairroll.Source, name string) (Sheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Sheet{}, ErrNameEmpty
	}

	sheet := Sheet{Name: name, Verification: src.Pair()}
	for stat := StatStrength; stat < NumStats; stat++ {
		line, err := rollStatLine(src, stat)
		if err != nil {
			return Sheet{}, err
		}
		sheet.Stats[stat] = line
	}

	elementRoll, err := src.Roll("element", 6)
	if err != nil {
		return Sheet{}, err
	}
	sheet.Element = elementFromRoll(elementRoll)

	spiritRoll, err := src.Roll("spirit", 12)
	if err != nil {
		return Sheet{}, err
	}
	sheet.Spirit = spiritFromRoll(spiritRoll)

	sexRoll, err := src.Roll("sex", 2)
	if err != nil {
		return Sheet{}, err
	}
	sheet.Sex = Sex(sexRoll)

	return sheet, nil
}

// VerifySheet re-derives a sheet from its verification block and reports
// the first mismatch. A nil error means every die, total, modifier, and
// trait matches the committed seeds.
func VerifySheet(sheet Sheet) error {
	src, err := fairroll.NewSource(sheet.Verification)
	if err != nil {
		return err
	}
	derived, err := RollSheet(src, sheet.Name)
	if err != nil {
		return err
	}

	for stat := StatStrength; stat < NumStats; stat++ {
		want := derived.Stats[stat]
		got := sheet.Stats[stat]
		for i := range want.Dice {
			if got.Dice[i] != want.Dice[i] {
				return tamperError(fmt.Sprintf("%s:%d", stat, i+1), want.Dice[i], got.Dice[i])
			}
		}
		if got.Total != want.Total {
			return tamperError(stat.String()+":total", want.Total, got.Total)
		}
		if got.Modifier != want.Modifier {
			return tamperError(stat.String()+":modifier", want.Modifier, got.Modifier)
		}
	}
	if sheet.Element != derived.Element {
		return tamperError("element", int(derived.Element), int(sheet.Element))
	}
	if sheet.Spirit != derived.Spirit {
		return tamperError("spirit", int(derived.Spirit), int(sheet.Spirit))
	}
	if sheet.Sex != derived.Sex {
		return tamperError("sex", int(derived.Sex), int(sheet.Sex))
	}
	return nil
}

func rollStatLine(src *fairroll.Source, stat Stat) (StatLine, error) {
	var line StatLine
	for i := 0; i < 4; i++ {
		value, err := src.Roll(fmt.Sprintf("%s:%d", stat, i+1), 6)
		if err != nil {
			return StatLine{}, err
		}
		line.Dice[i] = value
		line.Total += value
	}
	line.Modifier = StatModifier(line.Total)
	return line, nil
}

func tamperError(field string, want, got int) error {
	return apperrors.WithMetadata(apperrors.CodeCharacterTampered, "character sheet does not match its seed pair", map[string]string{
		"field": field,
		"want":  fmt.Sprintf("%d", want),
		"got":   fmt.Sprintf("%d", got),
	})
}
