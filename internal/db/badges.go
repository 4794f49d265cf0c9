package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
	"nycexplorer/internal/engine"
)

func (d *DB) LoadBadges(ctx context.Context, userID string) (badges.Collection, int64, error) {
	var (
		raw     []byte
		version int64
	)
	err := d.conn.QueryRowContext(ctx, `
		SELECT badges, version FROM user_badges WHERE user_id = $1
	`, userID).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("loading badges: %w", err)
	}

	var c badges.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, 0, fmt.Errorf("decoding badges for %s: %w", userID, err)
	}
	return c, version, nil
}

// SaveBadges writes the whole collection with an optimistic version check.
// Version 0 means nothing is stored yet.
func (d *DB) SaveBadges(ctx context.Context, userID string, c badges.Collection, expected int64) (int64, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return 0, fmt.Errorf("encoding badges: %w", err)
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureUser(ctx, tx, userID); err != nil {
		return 0, err
	}

	var res sql.Result
	if expected == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO user_badges (user_id, badges, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, raw)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE user_badges
			SET badges = $2, version = version + 1, updated_at = now()
			WHERE user_id = $1 AND version = $3
		`, userID, raw, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("saving badges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("saving badges: %w", err)
	}
	if n == 0 {
		return 0, engine.ErrVersionConflict
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing badges: %w", err)
	}
	return expected + 1, nil
}

var (
	_ activity.Store    = (*DB)(nil)
	_ engine.BadgeStore = (*DB)(nil)
)
