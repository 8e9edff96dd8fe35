package authapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/invox/internal/http/authmw"
	"github.com/MrJamesThe3rd/invox/internal/user"
)

type Handler struct {
	svc *user.Service
}

func NewHandler(svc *user.Service) *Handler {
	return &Handler{svc: svc}
}

// PublicRoutes are reachable without a token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

// ProtectedRoutes require the auth middleware to have run.
func (h *Handler) ProtectedRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/change-password", h.changePassword)
	r.Post("/update-email", h.updateEmail)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Message: "Registration successful!", UserID: id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeUserError(w, err)
		return
	}

	// The response body is the bare token as a JSON string.
	writeJSON(w, http.StatusOK, token)
}

type profileResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	u, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Username: u.Username, Email: u.Email})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Password changed successfully.")
}

type updateEmailResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handler) updateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := authmw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	// The request body is a bare JSON string carrying the new address.
	var newEmail string
	if err := json.NewDecoder(r.Body).Decode(&newEmail); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	email, err := h.svc.ChangeEmail(r.Context(), userID, newEmail)
	if err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateEmailResponse{Email: email, Message: "Email updated successfully."})
}

// writeUserError maps service errors to wire statuses. Validation, conflict
// and credential failures all surface as 400 so callers get no extra signal.
func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, user.ErrMissingFields),
		errors.Is(err, user.ErrBadUsername),
		errors.Is(err, user.ErrBadEmail),
		errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrBadCredentials),
		errors.Is(err, user.ErrWrongPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("auth handler failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
