package auth

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/ayush/gyancoder/backend/internal/models"
)

// emailPattern is deliberately minimal: something before and after a single @.
// The credential store itself does not validate email format, so this
// boundary is the only check.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// CredentialStore defines the credential persistence the handlers consume.
type CredentialStore interface {
	Verify(username, password string) (bool, error)
	Add(username, password, email string) (bool, error)
	ResetPassword(username, email, newPassword string) (bool, error)
	Get(username string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	creds    CredentialStore
	sessions Sessions
}

func NewHandler(creds CredentialStore, sessions Sessions) *Handler {
	return &Handler{creds: creds, sessions: sessions}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"username, email, and password are required"}`, http.StatusBadRequest)
		return
	}
	if !emailPattern.MatchString(req.Email) {
		http.Error(w, `{"error":"invalid email address"}`, http.StatusBadRequest)
		return
	}

	created, err := h.creds.Add(req.Username, req.Password, req.Email)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !created {
		http.Error(w, `{"error":"username already exists"}`, http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.User{Username: req.Username, Email: req.Email})
}

// Login authenticates a user and creates a session. Unknown usernames and
// wrong passwords get the same answer.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	ok, err := h.creds.Verify(req.Username, req.Password)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	sid, err := h.sessions.Create(r.Context(), req.Username)
	if err != nil {
		http.Error(w, `{"error":"session creation failed"}`, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})

	user, err := h.creds.Get(req.Username)
	if err != nil {
		user = &models.User{Username: req.Username}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		h.sessions.Delete(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"logged out"}`))
}

// ResetPassword sets a new password when the supplied email matches the one
// on record for the username.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.NewPassword == "" {
		http.Error(w, `{"error":"username, email, and new_password are required"}`, http.StatusBadRequest)
		return
	}

	ok, err := h.creds.ResetPassword(req.Username, req.Email, req.NewPassword)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"username and email do not match"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"message":"password updated"}`))
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
		return
	}

	user, err := h.creds.Get(username)
	if err != nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
