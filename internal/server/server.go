package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goosewin/visionquest/internal/game"
	"github.com/goosewin/visionquest/internal/imaging"
)

const (
	defaultHost         = "127.0.0.1"
	defaultPort         = 8501
	defaultMaxBodyBytes = 10 << 20
	sessionCookie       = "visionquest_session"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Options configures the game server.
type Options struct {
	Host          string
	Port          int
	MaxBodyBytes  int64
	ThumbnailSize int
	Controller    *game.Controller
	Store         *game.Store
	Logger        *slog.Logger
}

// StartServer runs the game server until ctx is canceled.
func StartServer(ctx context.Context, opts Options) error {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = defaultHost
	}
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d", port)
	}
	opts.Host = host

	handler, err := NewHandler(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		Handler:           handler,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctxTimeout)
	}()

	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		select {
		case shutdownErr := <-shutdownErr:
			return shutdownErr
		default:
			return nil
		}
	}
	return err
}

type handler struct {
	host      string
	maxBody   int64
	thumbnail int
	ctrl      *game.Controller
	store     *game.Store
	logger    *slog.Logger
}

// NewHandler builds the HTTP routes for the game.
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Controller == nil {
		return nil, errors.New("game controller is required")
	}
	store := opts.Store
	if store == nil {
		var err error
		store, err = game.NewStore(game.DefaultMaxSessions)
		if err != nil {
			return nil, err
		}
	}
	h := &handler{
		host:      opts.Host,
		maxBody:   opts.MaxBodyBytes,
		thumbnail: opts.ThumbnailSize,
		ctrl:      opts.Controller,
		store:     store,
		logger:    opts.Logger,
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBodyBytes
	}
	if h.thumbnail <= 0 {
		h.thumbnail = imaging.DefaultMaxDimension
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/challenge", h.post(h.handleChallenge))
	mux.HandleFunc("/reset", h.post(h.handleReset))
	mux.HandleFunc("/submit", h.post(h.handleSubmit))
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/scorecard.png", h.handleScorecard)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "visionquest"})
	})

	return withCORS(mux, h.host, h.maxBody), nil
}

func (h *handler) post(next func(w http.ResponseWriter, r *http.Request, s *game.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s, release := h.session(w, r)
		defer release()
		next(w, r, s)
	}
}

func (h *handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "Unknown endpoint")
		return
	}
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s, release := h.session(w, r)
	defer release()
	h.renderPage(w, http.StatusOK, s, "")
}

func (h *handler) handleChallenge(w http.ResponseWriter, r *http.Request, s *game.Session) {
	h.ctrl.Next(r.Context(), s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request, s *game.Session) {
	h.ctrl.Reset(s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) handleSubmit(w http.ResponseWriter, r *http.Request, s *game.Session) {
	if !s.Active() {
		h.renderPage(w, http.StatusConflict, s, "Click 'New Challenge' to start!")
		return
	}

	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderPage(w, http.StatusRequestEntityTooLarge, s, "Image is too large")
			return
		}
		h.renderPage(w, http.StatusBadRequest, s, "Upload an image to check")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		h.renderPage(w, http.StatusBadRequest, s, "Upload an image to check")
		return
	}
	defer file.Close()

	img, format, err := imaging.DecodeUpload(file)
	if err != nil {
		h.logger.Warn("rejected upload", "session", s.ID, "format", format, "error", err)
		if errors.Is(err, imaging.ErrImageTooLarge) {
			h.renderPage(w, http.StatusRequestEntityTooLarge, s, "Image dimensions are too large")
			return
		}
		h.renderPage(w, http.StatusBadRequest, s, fmt.Sprintf("Could not read image: %v", err))
		return
	}

	if _, err := h.ctrl.Submit(r.Context(), s, imaging.Thumbnail(img, h.thumbnail)); err != nil {
		if errors.Is(err, game.ErrNoActiveChallenge) {
			h.renderPage(w, http.StatusConflict, s, "Click 'New Challenge' to start!")
			return
		}
		h.logger.Error("submission failed", "session", s.ID, "error", err)
		h.renderPage(w, http.StatusInternalServerError, s, "Failed to process image")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type stateResponse struct {
	Session   string         `json:"session"`
	Score     int            `json:"score"`
	Challenge string         `json:"challenge,omitempty"`
	Active    bool           `json:"active"`
	Over      bool           `json:"game_over"`
	Remaining []string       `json:"remaining"`
	Last      *outcomeReport `json:"last,omitempty"`
}

type outcomeReport struct {
	Challenge string `json:"challenge"`
	Response  string `json:"response"`
	Passed    bool   `json:"passed"`
	Failed    bool   `json:"failed"`
	Awarded   int    `json:"awarded"`
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s, release := h.session(w, r)
	defer release()

	response := stateResponse{
		Session:   s.ID,
		Score:     s.Score,
		Challenge: s.Current,
		Active:    s.Active(),
		Over:      s.Over(),
		Remaining: s.Queue.Remaining(),
	}
	if s.Last != nil {
		response.Last = &outcomeReport{
			Challenge: s.Last.Challenge,
			Response:  s.Last.Response,
			Passed:    s.Last.Passed,
			Failed:    s.Last.Failed,
			Awarded:   s.Last.Awarded,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleScorecard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s, release := h.session(w, r)
	card := imaging.Scorecard{
		Score:     s.Score,
		Completed: s.Served(),
		Total:     s.Total(),
		Status:    statusLine(s),
	}
	release()

	data, err := imaging.RenderScorecard(card)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to render scorecard")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func statusLine(s *game.Session) string {
	if s.Current == "" {
		return "Click 'New Challenge' to start!"
	}
	return s.Current
}

type pageView struct {
	Score     int
	Challenge string
	Active    bool
	Over      bool
	Error     string
	Last      *game.Outcome
	ImageURI  template.URL
}

func (h *handler) renderPage(w http.ResponseWriter, status int, s *game.Session, message string) {
	view := pageView{
		Score:     s.Score,
		Challenge: s.Current,
		Active:    s.Active(),
		Over:      s.Over(),
		Error:     message,
		Last:      s.Last,
	}
	if s.Last != nil && s.Last.Image != "" {
		view.ImageURI = template.URL(imaging.DataURI(s.Last.Image))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error("render page", "error", err)
	}
}

// session resolves the caller's session from its cookie, issuing a new one when needed.
func (h *handler) session(w http.ResponseWriter, r *http.Request) (*game.Session, func()) {
	id := ""
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = cookie.Value
	}
	s, release := h.store.Acquire(id)
	if s.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s, release
}

func withCORS(next http.Handler, host string, maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corsOrigin := resolveCORSOrigin(r.Header.Get("Origin"), host)
		if corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", corsOrigin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		next.ServeHTTP(w, r)
	})
}

func resolveCORSOrigin(origin, host string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return ""
	}

	switch origin {
	case "http://localhost", "http://127.0.0.1", "http://[::1]":
		return origin
	}

	host = strings.TrimSpace(host)
	if host != "" && host != "0.0.0.0" && host != "::" {
		if origin == "http://"+host {
			return origin
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	payload := map[string]string{"error": message}
	writeJSON(w, status, payload)
}
