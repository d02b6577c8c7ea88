package track

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"geotrack/cmd/internal/auth/session"
)

const (
	defaultMaxBodyBytes = 4 << 10

	defaultMapLimit = 100
	maxMapLimit     = 500
)

// SessionValidator is the slice of the session service the handlers need.
type SessionValidator interface {
	Validate(ctx context.Context, token string, now time.Time) (session.AccessClaims, error)
}

// Handler serves the position REST endpoints. All routes require a valid
// bearer token and only touch the authenticated user's data.
type Handler struct {
	log      *slog.Logger
	store    Store
	sessions SessionValidator

	maxBodyBytes int64
	mapLimit     int
}

// NewHandler constructs a Handler.
func NewHandler(log *slog.Logger, store Store, sessions SessionValidator) *Handler {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Handler{
		log:          log,
		store:        store,
		sessions:     sessions,
		maxBodyBytes: defaultMaxBodyBytes,
		mapLimit:     defaultMapLimit,
	}
}

// Register mounts the position routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/map", h.handleMap)
	mux.HandleFunc("GET /api/positions/last", h.handleLast)
	mux.HandleFunc("POST /api/positions", h.handleRecord)
}

type recordRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type positionResponse struct {
	Success   bool      `json:"success"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

type mapPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

type mapResponse struct {
	Success bool       `json:"success"`
	Data    []mapPoint `json:"data"`
}

func (h *Handler) handleMap(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	positions, err := h.store.RecentByUser(r.Context(), claims.UserID, h.mapLimit)
	if err != nil {
		h.log.Error("track.map.fail", "err", err, "user_id", claims.UserID)
		writeTrackError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	data := make([]mapPoint, 0, len(positions))
	for _, pos := range positions {
		data = append(data, mapPoint{Lat: pos.Lat, Lng: pos.Lng, Timestamp: pos.RecordedAt})
	}
	writeTrackJSON(w, http.StatusOK, mapResponse{Success: true, Data: data})
}

func (h *Handler) handleLast(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	pos, err := h.store.LastByUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNoPositions) {
			writeTrackError(w, http.StatusNotFound, "Aucune position trouvée")
			return
		}
		h.log.Error("track.last.fail", "err", err, "user_id", claims.UserID)
		writeTrackError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	writeTrackJSON(w, http.StatusOK, positionResponse{
		Success:   true,
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Timestamp: pos.RecordedAt,
	})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req recordRequest
	if err := decodeTrackJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeTrackError(w, http.StatusBadRequest, "Corps de requête invalide")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeTrackError(w, http.StatusBadRequest, "Latitude et longitude requises")
		return
	}

	pos, err := h.store.Record(r.Context(), RecordInput{
		UserID: claims.UserID,
		Lat:    *req.Lat,
		Lng:    *req.Lng,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCoordinates) {
			writeTrackError(w, http.StatusBadRequest, "Coordonnées invalides")
			return
		}
		h.log.Error("track.record.fail", "err", err, "user_id", claims.UserID)
		writeTrackError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	h.log.Info("track.record.ok", "user_id", claims.UserID, "position_id", pos.ID)
	writeTrackJSON(w, http.StatusCreated, positionResponse{
		Success:   true,
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Timestamp: pos.RecordedAt,
	})
}

// requireAuth validates the bearer token and writes the 401 itself on failure.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.AccessClaims, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeTrackError(w, http.StatusUnauthorized, "Token manquant")
		return session.AccessClaims{}, false
	}

	claims, err := h.sessions.Validate(r.Context(), token, time.Now().UTC())
	if err != nil {
		writeTrackError(w, http.StatusUnauthorized, "Token invalide ou expiré")
		return session.AccessClaims{}, false
	}
	return claims, true
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}

type trackErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeTrackJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTrackError(w http.ResponseWriter, status int, msg string) {
	writeTrackJSON(w, status, trackErrorResponse{Success: false, Message: msg})
}

func decodeTrackJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
