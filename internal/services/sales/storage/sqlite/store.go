// Package sqlite provides a SQLite-backed sales storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vdappdev2/vcharacter-sales/internal/platform/storage/sqlitemigrate"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists sales state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite sales store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateAchievement inserts one finished-quarter record.
func (s *Store) CreateAchievement(ctx context.Context, achievement storage.Achievement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := achievement.Validate(); err != nil {
		return err
	}
	createdAt := achievement.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	seedPairs, choices, actions, err := marshalTrail(achievement)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO achievements (
		   id,
		   character_name,
		   character_roll_height,
		   tier,
		   starting_money,
		   final_money,
		   key_roll,
		   seed_pairs,
		   choices,
		   actions,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		achievement.ID,
		strings.TrimSpace(achievement.CharacterName),
		achievement.CharacterRollHeight,
		int(achievement.Tier),
		achievement.StartingMoney,
		achievement.FinalMoney,
		achievement.KeyRoll,
		seedPairs,
		choices,
		actions,
		toMillis(createdAt),
	)
	if err != nil {
		if isAchievementUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

// GetAchievement returns one achievement by ID.
func (s *Store) GetAchievement(ctx context.Context, id string) (storage.Achievement, error) {
	if err := ctx.Err(); err != nil {
		return storage.Achievement{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Achievement{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Achievement{}, fmt.Errorf("achievement id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, character_name, character_roll_height, tier,
		        starting_money, final_money, key_roll,
		        seed_pairs, choices, actions, created_at
		   FROM achievements
		  WHERE id = ?`,
		id,
	)
	achievement, err := scanAchievement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Achievement{}, storage.ErrNotFound
		}
		return storage.Achievement{}, fmt.Errorf("get achievement: %w", err)
	}
	return achievement, nil
}

// ListAchievements returns one page of achievement records.
func (s *Store) ListAchievements(ctx context.Context, pageSize int, pageToken string) (storage.AchievementPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AchievementPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AchievementPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.AchievementPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	page := storage.AchievementPage{
		Achievements: make([]storage.Achievement, 0, pageSize),
	}

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, character_name, character_roll_height, tier,
			        starting_money, final_money, key_roll,
			        seed_pairs, choices, actions, created_at
			   FROM achievements
			  ORDER BY id ASC
			  LIMIT ?`,
			pageSize+1,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT id, character_name, character_roll_height, tier,
			        starting_money, final_money, key_roll,
			        seed_pairs, choices, actions, created_at
			   FROM achievements
			  WHERE id > ?
			  ORDER BY id ASC
			  LIMIT ?`,
			pageToken,
			pageSize+1,
		)
	}
	if err != nil {
		return storage.AchievementPage{}, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		achievement, err := scanAchievement(rows.Scan)
		if err != nil {
			return storage.AchievementPage{}, fmt.Errorf("list achievements: %w", err)
		}
		page.Achievements = append(page.Achievements, achievement)
	}
	if err := rows.Err(); err != nil {
		return storage.AchievementPage{}, fmt.Errorf("list achievements: %w", err)
	}
	if len(page.Achievements) > pageSize {
		page.NextPageToken = page.Achievements[pageSize-1].ID
		page.Achievements = page.Achievements[:pageSize]
	}

	return page, nil
}

func marshalTrail(achievement storage.Achievement) (seedPairs, choices, actions string, err error) {
	seedBytes, err := json.Marshal(achievement.SeedPairs)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal seed pairs: %w", err)
	}
	choiceBytes, err := json.Marshal(orEmpty(achievement.Choices))
	if err != nil {
		return "", "", "", fmt.Errorf("marshal choices: %w", err)
	}
	actionBytes, err := json.Marshal(orEmpty(achievement.Actions))
	if err != nil {
		return "", "", "", fmt.Errorf("marshal actions: %w", err)
	}
	return string(seedBytes), string(choiceBytes), string(actionBytes), nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func scanAchievement(scan func(dest ...any) error) (storage.Achievement, error) {
	var achievement storage.Achievement
	var tier int
	var seedPairs, choices, actions string
	var createdAt int64
	if err := scan(
		&achievement.ID,
		&achievement.CharacterName,
		&achievement.CharacterRollHeight,
		&tier,
		&achievement.StartingMoney,
		&achievement.FinalMoney,
		&achievement.KeyRoll,
		&seedPairs,
		&choices,
		&actions,
		&createdAt,
	); err != nil {
		return storage.Achievement{}, err
	}
	achievement.Tier = quarter.Tier(tier)
	achievement.CreatedAt = fromMillis(createdAt)
	if err := json.Unmarshal([]byte(seedPairs), &achievement.SeedPairs); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal seed pairs: %w", err)
	}
	if err := json.Unmarshal([]byte(choices), &achievement.Choices); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal choices: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &achievement.Actions); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal actions: %w", err)
	}
	if achievement.SeedPairs == nil {
		achievement.SeedPairs = []fairroll.SeedPair{}
	}
	return achievement, nil
}

func isAchievementUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "achievements.id")
}

var _ storage.AchievementStore = (*Store)(nil)
