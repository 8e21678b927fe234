package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gocv.io/x/gocv"

	facesense "github.com/clinsight/go-facesense"
	"github.com/clinsight/go-facesense/config"
	"github.com/clinsight/go-facesense/session"
)

// server exposes the session pipeline over HTTP.  Frames are submitted as
// base64 encoded JPEG images and every response is JSON
type server struct {
	pl    *session.Pipeline
	store *summaryStore
	log   *slog.Logger
}

type frameRequest struct {
	// Image is the base64 encoded JPEG frame
	Image string `json:"image"`
	// Timestamp in seconds relative to session start
	Timestamp float64 `json:"timestamp"`
}

func main() {

	configFile := flag.String("c", "", "Optional YAML configuration file")
	addr := flag.String("a", ":8080", "Address to listen on")
	dbPath := flag.String("s", "./facesense.db", "SQLite file for persisted summaries")

	flag.Parse()

	cfg := config.Default()

	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)

		if err != nil {
			fmt.Println("Error loading config:", err)
			return
		}
	}

	log := config.NewLogger(os.Stderr, cfg.Pipeline.LogLevel)

	pool, err := facesense.NewPool(cfg.Pipeline.PoolSize, func() (*facesense.Models, error) {
		mesh, err := facesense.NewFaceMesh(cfg.Models.FaceMesh, facesense.DefaultFaceMeshParams())

		if err != nil {
			return nil, err
		}

		net, err := facesense.NewEmotionNet(cfg.Models.Emotion, facesense.DefaultEmotionNetParams())

		if err != nil {
			mesh.Close()
			return nil, err
		}

		return &facesense.Models{Extractor: mesh, Classifier: net}, nil
	})

	if err != nil {
		log.Error("error loading models", "error", err)
		return
	}

	defer pool.Close()

	store, err := newSummaryStore(*dbPath)

	if err != nil {
		log.Error("error opening summary store", "error", err)
		return
	}

	defer store.Close()

	srv := &server{
		pl:    session.NewPipeline(cfg.Analysis, pool, pool, log),
		store: store,
		log:   log,
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/status", srv.handleStatus)
	r.Post("/session", srv.handleCreate)
	r.Post("/session/{id}/start", srv.handleStart)
	r.Post("/session/{id}/frame", srv.handleFrame)
	r.Get("/session/{id}/summary", srv.handleSummary)
	r.Post("/session/{id}/stop", srv.handleStop)
	r.Delete("/session/{id}", srv.handleRemove)
	r.Get("/summaries/{id}", srv.handleStoredSummary)

	log.Info("listening", "addr", *addr)

	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Error("server failed", "error", err)
	}
}

// handleStatus reports the active session identifiers
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": s.pl.Active(),
	})
}

// handleCreate generates a session identifier and starts a session for it
func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {

	id := uuid.New().String()

	if err := s.pl.Start(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleStart starts a session under a caller supplied identifier
func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	if err := s.pl.Start(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// handleFrame decodes the submitted frame and runs it through the pipeline
func (s *server) handleFrame(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	var req frameRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)

	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid image encoding: %w", err))
		return
	}

	img, err := gocv.IMDecode(raw, gocv.IMReadColor)

	if err != nil || img.Empty() {
		writeError(w, http.StatusBadRequest, errors.New("image could not be decoded"))
		return
	}

	defer img.Close()

	fa, err := s.pl.ProcessFrame(id, img, req.Timestamp)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, fa)
}

// handleSummary reports the live summary of a session
func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	sum, err := s.pl.Summary(id)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if sum == nil {
		// no face detected frames yet
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// handleStop ends a session and persists its final summary
func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	if err := s.pl.Stop(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	sum, err := s.pl.Summary(id)

	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if sum == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.store.Save(id, sum); err != nil {
		s.log.Error("error persisting summary", "session", id, "error", err)
	}

	writeJSON(w, http.StatusOK, sum)
}

// handleRemove discards a session and its state
func (s *server) handleRemove(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	if err := s.pl.Remove(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStoredSummary reports a previously persisted summary
func (s *server) handleStoredSummary(w http.ResponseWriter, r *http.Request) {

	id := chi.URLParam(r, "id")

	sum, err := s.store.Get(id)

	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if sum == nil {
		writeError(w, http.StatusNotFound, errors.New("no summary for session"))
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists),
		errors.Is(err, session.ErrSessionStopped):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
