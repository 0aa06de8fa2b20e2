package users

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rohitpal/userhub/backend/internal/auth"
	"github.com/rohitpal/userhub/backend/internal/middleware"
	"github.com/rohitpal/userhub/backend/internal/models"
	"github.com/rohitpal/userhub/backend/internal/store"
)

// AccountService defines the business operations the handlers dispatch to.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserView, error)
	GetByID(ctx context.Context, id int64) (*models.UserView, error)
	List(ctx context.Context) ([]models.UserView, error)
	Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserView, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Authenticate(ctx context.Context, username, password string) (*models.UserView, error)
	FileReport(ctx context.Context, req models.ReportRequest) error
}

// Sessions is the slice of the session store the handlers need.
type Sessions interface {
	Create(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Handler holds the user-facing HTTP handlers.
type Handler struct {
	svc      AccountService
	sessions Sessions
}

func NewHandler(svc AccountService, sessions Sessions) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    view,
	})
}

// Login authenticates an account and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	view, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	sid, err := h.sessions.Create(r.Context(), view.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session creation failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.SessionTTL / time.Second),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    view,
	})
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Printf("session delete: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// List returns every account.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

// Get returns a single account by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": view})
}

// Update applies a partial update to an account.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    view,
	})
}

// Delete removes an account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
}

// Report files an abuse report against an account.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.FileReport(r.Context(), req); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Report submitted successfully"})
}

// Me returns the currently authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	view, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": view})
}

// writeServiceError maps service errors to transport responses. Anything
// unrecognized becomes a generic 500 with no internals leaked.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation error",
			"errors":  verrs,
		})
	case errors.Is(err, store.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "Username or email already exists")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// userIDParam parses the {id} route parameter. A non-numeric id matches no
// account, so it answers 404 the same as a missing row.
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
