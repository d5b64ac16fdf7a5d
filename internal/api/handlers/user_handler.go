package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/moodlog/moodlog-be/internal/auth"
	"github.com/moodlog/moodlog-be/internal/services"
)

// UserHandler handles HTTP requests for registration, login and accounts.
type UserHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService
	events services.EventServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, tokens *auth.TokenService, events services.EventServiceProvider) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, events: events}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.users.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		writeMessage(w, http.StatusBadRequest, "A user with that name already exists")
		return
	case errors.Is(err, services.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, "A user with that email already exists")
		return
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Username, email and password are required")
		return
	case err != nil:
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeMessage(w, http.StatusNotFound, "User could not be added")
		return
	}

	h.events.Record(r.Context(), "user.register", "info", "New user registered: "+payload.Username, &payload.Username)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User added successfully",
		"id":      id,
	})
}

// Login handles user authentication and token issuance. An unknown username
// and a wrong password produce the identical response.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("Login lookup failed")
		}
		writeMessage(w, http.StatusUnauthorized, "Invalid username and/or password.")
		return
	}

	token, err := h.tokens.Generate(user.Username)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to generate token")
		writeMessage(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.events.Record(r.Context(), "user.login", "info", "User logged in: "+user.Username, &user.Username)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User logged in",
		"token":   token,
	})
}

// Protected reports the identity the caller's token resolves to. It exists so
// clients can probe whether their token is still accepted.
func (h *UserHandler) Protected(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": identity})
}

// Delete handles the permanent deletion of a user account and every entry it
// owns. Only the account owner may delete it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.Identity(r.Context())
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Could not retrieve identity from token")
		return
	}

	target := chi.URLParam(r, "username")
	err := h.users.DeleteAccount(r.Context(), identity, target)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User does not exist")
		return
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusUnauthorized, "You do not have the authorization for this!")
		return
	case err != nil:
		log.Error().Err(err).Str("username", target).Msg("Failed to delete user")
		writeMessage(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.events.Record(r.Context(), "user.delete", "warn", "User and entries deleted: "+target, &target)
	w.WriteHeader(http.StatusNoContent)
}
