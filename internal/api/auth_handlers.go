package api

import (
	"errors"
	"net/http"

	"github.com/docforgehq/docforge/internal/api/apierr"
	"github.com/docforgehq/docforge/internal/auth"
	"github.com/docforgehq/docforge/internal/docgen"
	"github.com/docforgehq/docforge/internal/model"
	"github.com/docforgehq/docforge/internal/store"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		apierr.ValidationError(w, "username and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		apierr.InternalError(w, "could not register user")
		return
	}
	user, err := h.users.CreateUser(r.Context(), &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		apierr.Conflict(w, "username already taken")
		return
	}
	if err != nil {
		h.logger.Error("user creation failed", "error", err)
		apierr.InternalError(w, "could not register user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, docgen.ErrNotFound) {
		h.logger.Error("user lookup failed", "error", err)
		apierr.InternalError(w, "could not log in")
		return
	}
	// Same answer whether the username or the password was wrong.
	if err != nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		apierr.Unauthorized(w, "incorrect username or password")
		return
	}

	token, err := h.tokens.Issue(user.Username, user.IsAdmin)
	if err != nil {
		h.logger.Error("token signing failed", "error", err)
		apierr.InternalError(w, "could not log in")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
