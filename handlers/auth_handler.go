package handlers

import (
	"net/http"

	"github.com/bgaliyev/cue-league/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// SignUpHandler handles POST /auth/signup
func (h *AuthHandler) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var input services.SignUpInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.SignUp(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SignInHandler handles POST /auth/signin
func (h *AuthHandler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, user, err := h.authService.SignIn(r.Context(), input.Email, input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
