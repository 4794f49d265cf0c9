package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"nycexplorer/internal/activity"
)

func (d *DB) UpsertBusiness(ctx context.Context, b activity.Business) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO businesses (id, name, categories, address, neighborhood, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, categories = $3, address = $4, neighborhood = $5, zip_code = $6,
			updated_at = now()
	`, b.ID, b.Name, pq.Array(nonNil(b.Categories)), b.Location.Address, b.Location.Neighborhood, b.Location.ZipCode)
	if err != nil {
		return fmt.Errorf("upserting business: %w", err)
	}
	return nil
}

const businessColumns = `id, name, categories, address, neighborhood, zip_code`

func scanBusiness(row interface{ Scan(...any) error }) (activity.Business, error) {
	var b activity.Business
	err := row.Scan(&b.ID, &b.Name, pq.Array(&b.Categories),
		&b.Location.Address, &b.Location.Neighborhood, &b.Location.ZipCode)
	return b, err
}

func (d *DB) Business(ctx context.Context, id string) (activity.Business, error) {
	b, err := scanBusiness(d.conn.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Business{}, activity.ErrNotFound
	}
	if err != nil {
		return activity.Business{}, fmt.Errorf("getting business: %w", err)
	}
	return b, nil
}

func (d *DB) BusinessesByID(ctx context.Context, ids []string) (map[string]activity.Business, error) {
	out := make(map[string]activity.Business, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("getting businesses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning business: %w", err)
		}
		out[b.ID] = b
	}
	return out, rows.Err()
}

func (d *DB) CreateReview(ctx context.Context, r activity.Review) error {
	if err := ensureUser(ctx, d.conn, r.UserID); err != nil {
		return err
	}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, business_id, rating, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.UserID, r.BusinessID, r.Rating, r.Body, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

func (d *DB) DeleteReview(ctx context.Context, userID, reviewID string) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM reviews WHERE id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	return requireRow(res)
}

func (d *DB) ReviewCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

func (d *DB) Reviews(ctx context.Context, userID string) ([]activity.Review, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, user_id, business_id, rating, body, created_at
		FROM reviews WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting reviews: %w", err)
	}
	defer rows.Close()

	var reviews []activity.Review
	for rows.Next() {
		var r activity.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.BusinessID, &r.Rating, &r.Body, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (d *DB) Profile(ctx context.Context, userID string) (activity.Profile, error) {
	var p activity.Profile
	err := d.conn.QueryRowContext(ctx, `
		SELECT first_name, last_name, username, zip_code, profile_picture
		FROM users WHERE id = $1
	`, userID).Scan(&p.FirstName, &p.LastName, &p.Username, &p.ZipCode, &p.ProfilePicture)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Profile{}, activity.ErrNotFound
	}
	if err != nil {
		return activity.Profile{}, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

func (d *DB) UpdateProfile(ctx context.Context, userID string, p activity.Profile) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, username, zip_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			first_name = $2, last_name = $3, username = $4, zip_code = $5, updated_at = now()
	`, userID, p.FirstName, p.LastName, p.Username, p.ZipCode)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

func (d *DB) SetProfilePicture(ctx context.Context, userID, url string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO users (id, profile_picture) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET profile_picture = $2, updated_at = now()
	`, userID, url)
	if err != nil {
		return fmt.Errorf("setting profile picture: %w", err)
	}
	return nil
}

func (d *DB) HasProfilePicture(ctx context.Context, userID string) (bool, error) {
	var has bool
	err := d.conn.QueryRowContext(ctx,
		`SELECT profile_picture <> '' FROM users WHERE id = $1`, userID).Scan(&has)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking profile picture: %w", err)
	}
	return has, nil
}

func (d *DB) SetPreferences(ctx context.Context, userID string, p activity.Preferences) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO users (id, pref_food, pref_activities, pref_places, pref_custom)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			pref_food = $2, pref_activities = $3, pref_places = $4, pref_custom = $5,
			updated_at = now()
	`, userID,
		pq.Array(nonNil(p.Food)), pq.Array(nonNil(p.Activities)),
		pq.Array(nonNil(p.Places)), pq.Array(nonNil(p.Custom)))
	if err != nil {
		return fmt.Errorf("setting preferences: %w", err)
	}
	return nil
}

func (d *DB) Preferences(ctx context.Context, userID string) (activity.Preferences, error) {
	var p activity.Preferences
	err := d.conn.QueryRowContext(ctx, `
		SELECT pref_food, pref_activities, pref_places, pref_custom
		FROM users WHERE id = $1
	`, userID).Scan(pq.Array(&p.Food), pq.Array(&p.Activities), pq.Array(&p.Places), pq.Array(&p.Custom))
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Preferences{}, nil
	}
	if err != nil {
		return activity.Preferences{}, fmt.Errorf("getting preferences: %w", err)
	}
	return p, nil
}

func (d *DB) CreateItinerary(ctx context.Context, it activity.Itinerary) error {
	if err := ensureUser(ctx, d.conn, it.UserID); err != nil {
		return err
	}
	date := sql.NullTime{Time: it.Date, Valid: !it.Date.IsZero()}
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO itineraries (id, user_id, title, date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, it.ID, it.UserID, it.Title, date, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating itinerary: %w", err)
	}
	return nil
}

func (d *DB) Itineraries(ctx context.Context, userID string) ([]activity.Itinerary, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, user_id, title, date, created_at
		FROM itineraries WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("getting itineraries: %w", err)
	}
	defer rows.Close()

	var out []activity.Itinerary
	for rows.Next() {
		var (
			it   activity.Itinerary
			date sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Title, &date, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning itinerary: %w", err)
		}
		if date.Valid {
			it.Date = date.Time
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (d *DB) DeleteItinerary(ctx context.Context, userID, itineraryID string) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM itineraries WHERE id = $1 AND user_id = $2`, itineraryID, userID)
	if err != nil {
		return fmt.Errorf("deleting itinerary: %w", err)
	}
	return requireRow(res)
}

func (d *DB) ItineraryCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM itineraries WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting itineraries: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return activity.ErrNotFound
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
