// Package postgres provides a PostgreSQL-backed sales storage
// implementation.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage"
)

const uniqueViolationCode = "23505"

// Store persists sales state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a PostgreSQL sales store and ensures its schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS achievements (
    id TEXT PRIMARY KEY,
    character_name TEXT NOT NULL,
    character_roll_height BIGINT NOT NULL,
    tier INTEGER NOT NULL,
    starting_money BIGINT NOT NULL,
    final_money BIGINT NOT NULL,
    key_roll INTEGER NOT NULL,
    seed_pairs JSONB NOT NULL,
    choices JSONB NOT NULL,
    actions JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
)`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
CREATE INDEX IF NOT EXISTS idx_achievements_created_at
    ON achievements (created_at DESC)`)
	return err
}

// CreateAchievement inserts one finished-quarter record.
func (s *Store) CreateAchievement(ctx context.Context, achievement storage.Achievement) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := achievement.Validate(); err != nil {
		return err
	}
	createdAt := achievement.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	seedPairs, err := json.Marshal(achievement.SeedPairs)
	if err != nil {
		return fmt.Errorf("marshal seed pairs: %w", err)
	}
	choices, err := json.Marshal(orEmpty(achievement.Choices))
	if err != nil {
		return fmt.Errorf("marshal choices: %w", err)
	}
	actions, err := json.Marshal(orEmpty(achievement.Actions))
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	_, err = s.pool.Exec(
		ctx,
		`INSERT INTO achievements (
		   id, character_name, character_roll_height, tier,
		   starting_money, final_money, key_roll,
		   seed_pairs, choices, actions, created_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		achievement.ID,
		strings.TrimSpace(achievement.CharacterName),
		int64(achievement.CharacterRollHeight),
		int(achievement.Tier),
		achievement.StartingMoney,
		achievement.FinalMoney,
		achievement.KeyRoll,
		seedPairs,
		choices,
		actions,
		createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

// GetAchievement returns one achievement by ID.
func (s *Store) GetAchievement(ctx context.Context, id string) (storage.Achievement, error) {
	if s == nil || s.pool == nil {
		return storage.Achievement{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Achievement{}, fmt.Errorf("achievement id is required")
	}

	row := s.pool.QueryRow(
		ctx,
		`SELECT id, character_name, character_roll_height, tier,
		        starting_money, final_money, key_roll,
		        seed_pairs, choices, actions, created_at
		   FROM achievements
		  WHERE id = $1`,
		id,
	)
	achievement, err := scanAchievement(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Achievement{}, storage.ErrNotFound
		}
		return storage.Achievement{}, fmt.Errorf("get achievement: %w", err)
	}
	return achievement, nil
}

// ListAchievements returns one page of achievement records.
func (s *Store) ListAchievements(ctx context.Context, pageSize int, pageToken string) (storage.AchievementPage, error) {
	if s == nil || s.pool == nil {
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
		rows pgx.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.pool.Query(
			ctx,
			`SELECT id, character_name, character_roll_height, tier,
			        starting_money, final_money, key_roll,
			        seed_pairs, choices, actions, created_at
			   FROM achievements
			  ORDER BY id ASC
			  LIMIT $1`,
			pageSize+1,
		)
	} else {
		rows, err = s.pool.Query(
			ctx,
			`SELECT id, character_name, character_roll_height, tier,
			        starting_money, final_money, key_roll,
			        seed_pairs, choices, actions, created_at
			   FROM achievements
			  WHERE id > $1
			  ORDER BY id ASC
			  LIMIT $2`,
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

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func scanAchievement(scan func(dest ...any) error) (storage.Achievement, error) {
	var achievement storage.Achievement
	var rollHeight int64
	var tier int
	var seedPairs, choices, actions []byte
	var createdAt time.Time
	if err := scan(
		&achievement.ID,
		&achievement.CharacterName,
		&rollHeight,
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
	achievement.CharacterRollHeight = uint64(rollHeight)
	achievement.Tier = quarter.Tier(tier)
	achievement.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal(seedPairs, &achievement.SeedPairs); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal seed pairs: %w", err)
	}
	if err := json.Unmarshal(choices, &achievement.Choices); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal choices: %w", err)
	}
	if err := json.Unmarshal(actions, &achievement.Actions); err != nil {
		return storage.Achievement{}, fmt.Errorf("unmarshal actions: %w", err)
	}
	if achievement.SeedPairs == nil {
		achievement.SeedPairs = []fairroll.SeedPair{}
	}
	return achievement, nil
}

var _ storage.AchievementStore = (*Store)(nil)
