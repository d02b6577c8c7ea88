package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"geotrack/cmd/identity"
	"geotrack/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to identity/session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	identity identity.Store
	sessions *session.Service

	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, store identity.Store, sessions *session.Service, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("auth: nil identity store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		identity: store,
		sessions: sessions,
	}

	// Dummy hash for timing-resistant login checks on unknown users.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/inscription", h.handleInscription)
	mux.HandleFunc("GET /api/auth/validate", h.handleValidate)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("GET /api/protected", h.handleProtected)
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		loginTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Login et mot de passe requis")
		return
	}

	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		loginTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Login et mot de passe requis")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	userAuth, err := h.identity.GetUserAuthByLogin(ctx, login)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.log.Error("auth.login.lookup.fail", "err", err)
			loginTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}

		// Timing resistance: perform a dummy verify when the user is missing
		// so unknown-user and wrong-password take comparable time, and both
		// answer with the same message.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		h.log.Info("auth.login.fail", "reason", "not_found", "login", identity.NormalizeLogin(login), "ip", ip)
		loginTotal.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusUnauthorized, "Nom d'utilisateur ou mot de passe incorrect")
		return
	}

	okPw, err := identity.VerifyPassword(req.Password, userAuth.PasswordHash)
	if err != nil {
		// Verify errors mean a broken hash record or bad env config, not a
		// wrong password.
		h.log.Error("auth.login.verify.fail", "err", err, "user_id", userAuth.User.ID)
		loginTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}
	if !okPw {
		h.log.Info("auth.login.fail", "reason", "bad_password", "user_id", userAuth.User.ID, "ip", ip)
		loginTotal.WithLabelValues("invalid_credentials").Inc()
		writeError(w, http.StatusUnauthorized, "Nom d'utilisateur ou mot de passe incorrect")
		return
	}

	token, _, err := h.sessions.Issue(userAuth.User.ID, userAuth.User.Login, now)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err, "user_id", userAuth.User.ID)
		loginTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	h.log.Info("auth.login.ok", "user_id", userAuth.User.ID, "ip", ip)
	loginTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{Success: true, Message: "Connexion réussie", Token: token})
}

func (h *Handler) handleInscription(w http.ResponseWriter, r *http.Request) {
	var req inscriptionRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		inscriptionTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}

	if strings.TrimSpace(req.FirstName) == "" ||
		strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Username) == "" ||
		req.Password == "" {
		inscriptionTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Tous les champs sont requis")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)

	created, err := h.identity.CreateUser(ctx, identity.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Login:     req.Username,
		Password:  req.Password,
		Now:       now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			h.log.Info("auth.inscription.conflict", "login", identity.NormalizeLogin(req.Username), "ip", ip)
			inscriptionTotal.WithLabelValues("conflict").Inc()
			writeError(w, http.StatusConflict, "Nom d'utilisateur ou email déjà utilisé")
		case identity.IsInvalidInput(err):
			inscriptionTotal.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, "Données d'inscription invalides")
		default:
			h.log.Error("auth.inscription.fail", "err", err)
			inscriptionTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "Erreur serveur")
		}
		return
	}

	token, _, err := h.sessions.Issue(created.User.ID, created.User.Login, now)
	if err != nil {
		h.log.Error("auth.inscription.issue.fail", "err", err, "user_id", created.User.ID)
		inscriptionTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Erreur serveur")
		return
	}

	h.log.Info("auth.inscription.ok", "user_id", created.User.ID, "ip", ip)
	inscriptionTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{Success: true, Message: "Inscription réussie", Token: token})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		validateTotal.WithLabelValues("missing").Inc()
		writeValidateError(w, http.StatusUnauthorized, "Token manquant")
		return
	}

	claims, err := h.sessions.Validate(r.Context(), token, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenRevoked):
			validateTotal.WithLabelValues("revoked").Inc()
			writeValidateError(w, http.StatusUnauthorized, "Token révoqué")
		case errors.Is(err, session.ErrRevocationUnavailable):
			h.log.Error("auth.validate.revocation.fail", "err", err)
			validateTotal.WithLabelValues("error").Inc()
			writeValidateError(w, http.StatusServiceUnavailable, "Service indisponible")
		default:
			validateTotal.WithLabelValues("invalid").Inc()
			writeValidateError(w, http.StatusUnauthorized, "Token invalide ou expiré")
		}
		return
	}

	validateTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, validateResponse{
		OK:     true,
		UserID: claims.UserID,
		Login:  claims.Login,
		Exp:    claims.ExpiresAt.Unix(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	logoutTotal.Inc()

	// Logout is idempotent and never leaks token state: absent, malformed,
	// expired, and already-revoked tokens all get the same 200.
	token, ok := bearerToken(r)
	if ok {
		if err := h.sessions.Revoke(r.Context(), token, time.Now().UTC()); err != nil {
			h.log.Error("auth.logout.revoke.fail", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, logoutResponse{Success: true, Message: "Déconnecté"})
}

func (h *Handler) handleProtected(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, protectedResponse{
		Success: true,
		Message: "Accès autorisé",
		User:    protectedUser{ID: claims.UserID, Login: claims.Login},
	})
}

// ---- helpers ----

// requireAuth validates the bearer token and writes the 401 itself on failure.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.AccessClaims, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token manquant")
		return session.AccessClaims{}, false
	}

	claims, err := h.sessions.Validate(r.Context(), token, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenRevoked):
			writeError(w, http.StatusUnauthorized, "Token révoqué")
		case errors.Is(err, session.ErrRevocationUnavailable):
			h.log.Error("auth.require.revocation.fail", "err", err)
			writeError(w, http.StatusServiceUnavailable, "Service indisponible")
		default:
			writeError(w, http.StatusUnauthorized, "Token invalide ou expiré")
		}
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

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
				return first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
