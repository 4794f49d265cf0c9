package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/badges"
	"nycexplorer/internal/engine"
)

var ctx = context.Background()

func TestReviews_CountListDelete(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.CreateReview(ctx, activity.Review{ID: "r2", UserID: "u1", BusinessID: "b2", CreatedAt: base.Add(time.Hour)})
	s.CreateReview(ctx, activity.Review{ID: "r1", UserID: "u1", BusinessID: "b1", CreatedAt: base})
	s.CreateReview(ctx, activity.Review{ID: "r3", UserID: "u2", BusinessID: "b1", CreatedAt: base})

	n, _ := s.ReviewCount(ctx, "u1")
	if n != 2 {
		t.Errorf("ReviewCount() = %d, want 2", n)
	}

	list, _ := s.Reviews(ctx, "u1")
	if len(list) != 2 || list[0].ID != "r1" || list[1].ID != "r2" {
		t.Errorf("Reviews() = %+v, want r1 then r2", list)
	}

	if err := s.DeleteReview(ctx, "u2", "r1"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("DeleteReview() of another user's review error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteReview(ctx, "u1", "r1"); err != nil {
		t.Fatalf("DeleteReview() error: %v", err)
	}
	if n, _ := s.ReviewCount(ctx, "u1"); n != 1 {
		t.Errorf("ReviewCount() after delete = %d, want 1", n)
	}
}

func TestBusinessesByID_SkipsUnknown(t *testing.T) {
	s := New()
	s.UpsertBusiness(ctx, activity.Business{ID: "b1", Name: "Joe's", Categories: []string{"Coffee"}})

	got, err := s.BusinessesByID(ctx, []string{"b1", "nope"})
	if err != nil {
		t.Fatalf("BusinessesByID() error: %v", err)
	}
	if len(got) != 1 || got["b1"].Name != "Joe's" {
		t.Errorf("BusinessesByID() = %+v, want only b1", got)
	}

	if _, err := s.Business(ctx, "nope"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("Business() error = %v, want ErrNotFound", err)
	}
}

func TestProfile_PictureSurvivesUpdate(t *testing.T) {
	s := New()

	if ok, _ := s.HasProfilePicture(ctx, "u1"); ok {
		t.Error("unknown user should have no picture")
	}
	s.SetProfilePicture(ctx, "u1", "https://img.example/u1.png")
	s.UpdateProfile(ctx, "u1", activity.Profile{FirstName: "Ada", Username: "ada"})

	p, err := s.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if p.FirstName != "Ada" || p.ProfilePicture != "https://img.example/u1.png" {
		t.Errorf("Profile() = %+v", p)
	}
	if ok, _ := s.HasProfilePicture(ctx, "u1"); !ok {
		t.Error("HasProfilePicture() = false, want true")
	}
}

func TestPreferences_Copied(t *testing.T) {
	s := New()
	food := []string{"Pizza"}
	s.SetPreferences(ctx, "u1", activity.Preferences{Food: food})
	food[0] = "changed"

	p, _ := s.Preferences(ctx, "u1")
	if p.Food[0] != "Pizza" {
		t.Errorf("Preferences().Food[0] = %q, want %q", p.Food[0], "Pizza")
	}
}

func TestItineraries(t *testing.T) {
	s := New()
	s.CreateItinerary(ctx, activity.Itinerary{ID: "i1", UserID: "u1", Title: "Brooklyn day"})
	s.CreateItinerary(ctx, activity.Itinerary{ID: "i2", UserID: "u1", Title: "Queens night"})

	if n, _ := s.ItineraryCount(ctx, "u1"); n != 2 {
		t.Errorf("ItineraryCount() = %d, want 2", n)
	}
	if err := s.DeleteItinerary(ctx, "u2", "i1"); !errors.Is(err, activity.ErrNotFound) {
		t.Errorf("DeleteItinerary() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteItinerary(ctx, "u1", "i1"); err != nil {
		t.Fatalf("DeleteItinerary() error: %v", err)
	}
	list, _ := s.Itineraries(ctx, "u1")
	if len(list) != 1 || list[0].ID != "i2" {
		t.Errorf("Itineraries() = %+v, want only i2", list)
	}
}

func TestSaveBadges_Versioning(t *testing.T) {
	s := New()

	c, v, err := s.LoadBadges(ctx, "u1")
	if err != nil || len(c) != 0 || v != 0 {
		t.Fatalf("LoadBadges() = %v, %d, %v; want empty at version 0", c, v, err)
	}

	v1, err := s.SaveBadges(ctx, "u1", badges.NewCollection(), 0)
	if err != nil {
		t.Fatalf("SaveBadges() error: %v", err)
	}
	if v1 != 1 {
		t.Errorf("version = %d, want 1", v1)
	}

	if _, err := s.SaveBadges(ctx, "u1", badges.NewCollection(), 0); !errors.Is(err, engine.ErrVersionConflict) {
		t.Errorf("stale SaveBadges() error = %v, want ErrVersionConflict", err)
	}

	c, v, _ = s.LoadBadges(ctx, "u1")
	if len(c) != len(badges.Definitions()) || v != 1 {
		t.Errorf("LoadBadges() len=%d version=%d", len(c), v)
	}
}

func TestLoadBadges_ReturnsCopy(t *testing.T) {
	s := New()
	s.SaveBadges(ctx, "u1", badges.NewCollection(), 0)

	c, _, _ := s.LoadBadges(ctx, "u1")
	c[0].Acquired = true

	again, _, _ := s.LoadBadges(ctx, "u1")
	if again[0].Acquired {
		t.Error("LoadBadges() exposed internal state")
	}
}
