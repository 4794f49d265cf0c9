package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nycexplorer/internal/activity"
	"nycexplorer/internal/auth"
	"nycexplorer/internal/engine"
)

type reviewRequest struct {
	BusinessID string `json:"businessId" validate:"required,max=128"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Body       string `json:"body" validate:"max=5000"`
}

type profileRequest struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Username  string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	ZipCode   string `json:"zipCode" validate:"omitempty,len=5,numeric"`
}

type pictureRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

type preferencesRequest struct {
	Food       []string `json:"food" validate:"max=50,dive,max=100"`
	Activities []string `json:"activities" validate:"max=50,dive,max=100"`
	Places     []string `json:"places" validate:"max=50,dive,max=100"`
	Custom     []string `json:"custom" validate:"max=50,dive,max=100"`
}

type itineraryRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type businessRequest struct {
	Name       string            `json:"name" validate:"required,max=200"`
	Categories []string          `json:"categories" validate:"max=20,dive,required,max=100"`
	Location   activity.Location `json:"location"`
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, activity.ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.Logger.Error("store request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.Store.Business(r.Context(), req.BusinessID); err != nil {
		s.storeError(w, r, err, "business")
		return
	}

	review := activity.Review{
		ID:         uuid.New().String(),
		UserID:     auth.UserID(r.Context()),
		BusinessID: req.BusinessID,
		Rating:     req.Rating,
		Body:       req.Body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.CreateReview(r.Context(), review); err != nil {
		s.storeError(w, r, err, "review")
		return
	}
	respondAction(w, http.StatusCreated, review, s.fireEvent(r, engine.EventReviewAdded))
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.Store.Reviews(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "reviews")
		return
	}
	if reviews == nil {
		reviews = []activity.Review{}
	}
	respondOK(w, http.StatusOK, reviews)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.DeleteReview(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.storeError(w, r, err, "review")
		return
	}
	respondAction(w, http.StatusOK, map[string]string{"id": id}, s.fireEvent(r, engine.EventReviewDeleted))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.Profile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "profile")
		return
	}
	respondOK(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := auth.UserID(r.Context())
	p := activity.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		ZipCode:   req.ZipCode,
	}
	if err := s.Store.UpdateProfile(r.Context(), userID, p); err != nil {
		s.storeError(w, r, err, "profile")
		return
	}
	saved, err := s.Store.Profile(r.Context(), userID)
	if err != nil {
		s.storeError(w, r, err, "profile")
		return
	}
	respondAction(w, http.StatusOK, saved, s.fireEvent(r, engine.EventProfileUpdated))
}

func (s *Server) handleProfilePicture(w http.ResponseWriter, r *http.Request) {
	var req pictureRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Store.SetProfilePicture(r.Context(), auth.UserID(r.Context()), req.URL); err != nil {
		s.storeError(w, r, err, "profile")
		return
	}
	respondAction(w, http.StatusOK, map[string]string{"profilePicture": req.URL},
		s.fireEvent(r, engine.EventProfilePictureUpdated))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.Preferences(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "preferences")
		return
	}
	respondOK(w, http.StatusOK, p)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := activity.Preferences{
		Food:       req.Food,
		Activities: req.Activities,
		Places:     req.Places,
		Custom:     req.Custom,
	}
	if err := s.Store.SetPreferences(r.Context(), auth.UserID(r.Context()), p); err != nil {
		s.storeError(w, r, err, "preferences")
		return
	}
	respondAction(w, http.StatusOK, p, s.fireEvent(r, engine.EventPreferencesUpdated))
}

func (s *Server) handleCreateItinerary(w http.ResponseWriter, r *http.Request) {
	var req itineraryRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	it := activity.Itinerary{
		ID:        uuid.New().String(),
		UserID:    auth.UserID(r.Context()),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	if req.Date != "" {
		// validated above
		it.Date, _ = time.Parse("2006-01-02", req.Date)
	}
	if err := s.Store.CreateItinerary(r.Context(), it); err != nil {
		s.storeError(w, r, err, "itinerary")
		return
	}
	respondAction(w, http.StatusCreated, it, s.fireEvent(r, engine.EventItineraryCreated))
}

func (s *Server) handleListItineraries(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.Itineraries(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "itineraries")
		return
	}
	if list == nil {
		list = []activity.Itinerary{}
	}
	respondOK(w, http.StatusOK, list)
}

func (s *Server) handleDeleteItinerary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.DeleteItinerary(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.storeError(w, r, err, "itinerary")
		return
	}
	respondAction(w, http.StatusOK, map[string]string{"id": id}, s.fireEvent(r, engine.EventItineraryDeleted))
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := s.Store.Business(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err, "business")
		return
	}
	respondOK(w, http.StatusOK, b)
}

// handlePutBusiness creates or replaces a business record. Businesses are
// shared catalog data, so no badge event fires.
func (s *Server) handlePutBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if err := decodeValid(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	b := activity.Business{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		Categories: req.Categories,
		Location:   req.Location,
	}
	if err := s.Store.UpsertBusiness(r.Context(), b); err != nil {
		s.storeError(w, r, err, "business")
		return
	}
	respondOK(w, http.StatusOK, b)
}
