// Package api exposes the breeding service over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"genecards/internal/breeding"
	"genecards/internal/genome"
	"genecards/internal/model"
)

// Breeder is the subset of breeding.Breeder served over HTTP.
type Breeder interface {
	Genesis(ctx context.Context) (model.CardRecord, error)
	Populate(ctx context.Context, count, workers int) ([]model.CardRecord, error)
	Breed(ctx context.Context, parentA, parentB string) (model.CardRecord, error)
	Mutate(ctx context.Context, id string, slot genome.Slot) (model.CardRecord, error)
	Get(ctx context.Context, id string) (model.CardRecord, error)
	Delete(ctx context.Context, id string) error
	Score(ctx context.Context, id string) (breeding.Score, error)
	Rank(ctx context.Context, limit int) ([]model.CardRecord, error)
	Lineage(ctx context.Context, id string, limit int) ([]model.LineageRecord, error)
}

type server struct {
	breeder Breeder
	workers int
}

// NewServer routes the card endpoints to breeder. workers bounds batch
// genesis requests.
func NewServer(breeder Breeder, workers int) http.Handler {
	s := &server{breeder: breeder, workers: workers}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.rank)
		r.Post("/", s.genesis)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.get)
			r.Delete("/", s.delete)
			r.Get("/score", s.score)
			r.Get("/lineage", s.lineage)
			r.Post("/breed/{other}", s.breed)
			r.Post("/mutate/{slot}", s.mutate)
		})
	})
	return r
}

func (s *server) rank(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cards, err := s.breeder.Rank(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *server) genesis(w http.ResponseWriter, r *http.Request) {
	count, err := intQuery(r, "count", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if count < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("count must be > 0: %d", count))
		return
	}
	if count == 1 {
		record, err := s.breeder.Genesis(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)
		return
	}
	records, err := s.breeder.Populate(r.Context(), count, s.workers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

func (s *server) get(w http.ResponseWriter, r *http.Request) {
	record, err := s.breeder.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.breeder.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) score(w http.ResponseWriter, r *http.Request) {
	score, err := s.breeder.Score(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *server) lineage(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := s.breeder.Lineage(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) breed(w http.ResponseWriter, r *http.Request) {
	record, err := s.breeder.Breed(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "other"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *server) mutate(w http.ResponseWriter, r *http.Request) {
	slot, err := genome.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := s.breeder.Mutate(r.Context(), chi.URLParam(r, "id"), slot)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return v, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, breeding.ErrCardNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, genome.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Printf("genecards api: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("genecards api: encode response: %v", err)
	}
}
