// Package storage defines persistence contracts for sales game state.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
)

var (
	// ErrNotFound indicates a requested achievement record is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "achievement not found")
	// ErrAlreadyExists indicates an achievement with the same ID exists.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAchievementExists, "achievement already exists")
)

// seedPairCount is the number of entropy bundles a finished quarter records.
const seedPairCount = quarter.EntropyBundles

// Achievement stores one finished quarter eligible for the public board,
// carrying everything a verifier needs to replay the game.
type Achievement struct {
	ID                  string              `json:"id"`
	CharacterName       string              `json:"character_name"`
	CharacterRollHeight uint64              `json:"character_roll_height"`
	Tier                quarter.Tier        `json:"tier"`
	StartingMoney       int64               `json:"starting_money"`
	FinalMoney          int64               `json:"final_money"`
	KeyRoll             int                 `json:"key_roll"`
	SeedPairs           []fairroll.SeedPair `json:"seed_pairs"`
	Choices             []string            `json:"choices"`
	Actions             []string            `json:"actions"`
	CreatedAt           time.Time           `json:"created_at"`
}

// FromRecord flattens a finished game record into an achievement.
// Negotiation actions are slot-qualified so the replay order is
// unambiguous.
func FromRecord(id string, rec quarter.Record) Achievement {
	achievement := Achievement{
		ID:                  id,
		CharacterName:       rec.Character.Name,
		CharacterRollHeight: rec.Character.RollHeight(),
		Tier:                rec.Tier,
		StartingMoney:       rec.StartingMoney,
		FinalMoney:          rec.Money,
		KeyRoll:             rec.KeyRoll,
		SeedPairs:           rec.SeedPairs,
		Choices:             rec.Choices,
	}
	for _, enc := range rec.Encounters {
		for _, action := range enc.Actions {
			achievement.Actions = append(achievement.Actions, fmt.Sprintf("%s:%s", enc.Slot, action.Action))
		}
	}
	return achievement
}

// Validate checks the achievement is complete and board-eligible.
func (a Achievement) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return apperrors.New(apperrors.CodeAchievementInvalid, "achievement id is required")
	}
	if strings.TrimSpace(a.CharacterName) == "" {
		return apperrors.New(apperrors.CodeAchievementInvalid, "character name is required")
	}
	if !a.Tier.Persistable() {
		return apperrors.WithMetadata(apperrors.CodeAchievementTierIneligible, "tier is not board eligible", map[string]string{
			"tier": a.Tier.String(),
		})
	}
	if len(a.SeedPairs) != seedPairCount {
		return apperrors.WithMetadata(apperrors.CodeAchievementInvalid, "achievement needs every entropy bundle", map[string]string{
			"pairs": fmt.Sprintf("%d", len(a.SeedPairs)),
		})
	}
	if a.KeyRoll < 1 {
		return apperrors.New(apperrors.CodeAchievementInvalid, "key roll is required")
	}
	return nil
}

// AchievementPage stores one page of achievement records.
type AchievementPage struct {
	Achievements  []Achievement `json:"achievements"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// AchievementStore persists finished-quarter achievements.
type AchievementStore interface {
	CreateAchievement(ctx context.Context, achievement Achievement) error
	GetAchievement(ctx context.Context, id string) (Achievement, error)
	ListAchievements(ctx context.Context, pageSize int, pageToken string) (AchievementPage, error)
}
