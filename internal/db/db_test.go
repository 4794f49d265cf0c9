package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
	"nycexplorer/internal/engine"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	ctx := context.Background()
	database, err := Connect(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM reviews")
		database.conn.Exec("DELETE FROM itineraries")
		database.conn.Exec("DELETE FROM user_badges")
		database.conn.Exec("DELETE FROM businesses")
		database.conn.Exec("DELETE FROM users")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	tables := []string{"users", "user_badges", "businesses", "reviews", "itineraries"}
	for _, table := range tables {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s does not exist", table)
		}
	}

	// Migrations are re-runnable.
	if err := database.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate() error: %v", err)
	}
}

func TestBadges_SaveLoadVersioned(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	userID := "db-user-badges"

	c, v, err := database.LoadBadges(ctx, userID)
	if err != nil {
		t.Fatalf("LoadBadges() error: %v", err)
	}
	if len(c) != 0 || v != 0 {
		t.Fatalf("LoadBadges() = %d entries at version %d, want empty at 0", len(c), v)
	}

	initial := badges.NewCollection()
	v1, err := database.SaveBadges(ctx, userID, initial, 0)
	if err != nil {
		t.Fatalf("SaveBadges() error: %v", err)
	}
	if v1 != 1 {
		t.Errorf("version = %d, want 1", v1)
	}

	res := badges.EvaluateReviewCount(initial, 1, time.Now().UTC().Truncate(time.Microsecond))
	v2, err := database.SaveBadges(ctx, userID, res.Badges, v1)
	if err != nil {
		t.Fatalf("SaveBadges() update error: %v", err)
	}
	if v2 != 2 {
		t.Errorf("version = %d, want 2", v2)
	}

	if _, err := database.SaveBadges(ctx, userID, res.Badges, v1); !errors.Is(err, engine.ErrVersionConflict) {
		t.Errorf("stale SaveBadges() error = %v, want ErrVersionConflict", err)
	}
	if _, err := database.SaveBadges(ctx, userID, initial, 0); !errors.Is(err, engine.ErrVersionConflict) {
		t.Errorf("duplicate first SaveBadges() error = %v, want ErrVersionConflict", err)
	}

	loaded, v, err := database.LoadBadges(ctx, userID)
	if err != nil {
		t.Fatalf("LoadBadges() error: %v", err)
	}
	if v != 2 {
		t.Errorf("loaded version = %d, want 2", v)
	}
	s, ok := loaded.Get(badges.BadgeFirstReview)
	if !ok || !s.Acquired || s.DateAcquired == nil {
		t.Errorf("first_review = %+v, want acquired with date", s)
	}
}

func TestBusinessesByID(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()

	database.UpsertBusiness(ctx, activity.Business{
		ID: "biz-1", Name: "Abraço", Categories: []string{"Coffee & Tea"},
		Location: activity.Location{Neighborhood: "East Village"},
	})
	database.UpsertBusiness(ctx, activity.Business{ID: "biz-2", Name: "Lucali"})

	got, err := database.BusinessesByID(ctx, []string{"biz-1", "biz-2", "missing"})
	if err != nil {
		t.Fatalf("BusinessesByID() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got["biz-1"].Location.Neighborhood != "East Village" || len(got["biz-1"].Categories) != 1 {
		t.Errorf("biz-1 = %+v", got["biz-1"])
	}

	if _, err := database.Business(ctx, "missing"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("Business() error = %v, want ErrNotFound", err)
	}
}

func TestReviews_CreateCountDelete(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i, id := range []string{"rev-1", "rev-2"} {
		err := database.CreateReview(ctx, activity.Review{
			ID: id, UserID: "db-user-reviews", BusinessID: "biz-1", Rating: 4,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateReview(%s) error: %v", id, err)
		}
	}

	n, err := database.ReviewCount(ctx, "db-user-reviews")
	if err != nil || n != 2 {
		t.Errorf("ReviewCount() = %d, %v; want 2", n, err)
	}

	if err := database.DeleteReview(ctx, "someone-else", "rev-1"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("DeleteReview() foreign error = %v, want ErrNotFound", err)
	}
	if err := database.DeleteReview(ctx, "db-user-reviews", "rev-1"); err != nil {
		t.Fatalf("DeleteReview() error: %v", err)
	}

	reviews, err := database.Reviews(ctx, "db-user-reviews")
	if err != nil {
		t.Fatalf("Reviews() error: %v", err)
	}
	if len(reviews) != 1 || reviews[0].ID != "rev-2" {
		t.Errorf("Reviews() = %+v, want only rev-2", reviews)
	}
}

func TestPreferencesAndProfile(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	userID := "db-user-profile"

	prefs, err := database.Preferences(ctx, userID)
	if err != nil || prefs.Complete() {
		t.Errorf("Preferences() for unknown user = %+v, %v", prefs, err)
	}

	database.SetPreferences(ctx, userID, activity.Preferences{
		Food: []string{"Pizza"}, Activities: []string{"Jazz"}, Places: []string{"Parks"},
	})
	prefs, _ = database.Preferences(ctx, userID)
	if !prefs.Complete() {
		t.Errorf("Preferences() = %+v, want complete", prefs)
	}

	if has, _ := database.HasProfilePicture(ctx, userID); has {
		t.Error("HasProfilePicture() = true before upload")
	}
	database.SetProfilePicture(ctx, userID, "https://img.example/p.png")
	database.UpdateProfile(ctx, userID, activity.Profile{FirstName: "Grace"})

	p, err := database.Profile(ctx, userID)
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if p.FirstName != "Grace" || p.ProfilePicture != "https://img.example/p.png" {
		t.Errorf("Profile() = %+v", p)
	}
}

func TestItineraries(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	userID := "db-user-itineraries"

	err := database.CreateItinerary(ctx, activity.Itinerary{
		ID: "it-1", UserID: userID, Title: "Harlem walk", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateItinerary() error: %v", err)
	}
	if n, _ := database.ItineraryCount(ctx, userID); n != 1 {
		t.Errorf("ItineraryCount() = %d, want 1", n)
	}
	list, _ := database.Itineraries(ctx, userID)
	if len(list) != 1 || !list[0].Date.IsZero() {
		t.Errorf("Itineraries() = %+v", list)
	}
	if err := database.DeleteItinerary(ctx, userID, "it-1"); err != nil {
		t.Fatalf("DeleteItinerary() error: %v", err)
	}
	if err := database.DeleteItinerary(ctx, userID, "it-1"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("second DeleteItinerary() error = %v, want ErrNotFound", err)
	}
}
