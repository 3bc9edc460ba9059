package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopzen/storefront/internal/domain"
	mw "github.com/shopzen/storefront/internal/http/middleware"
	"github.com/shopzen/storefront/internal/http/response"
	"github.com/shopzen/storefront/pkg/logger"
)

type sessionEnvelope struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    *domain.UserInfo `json:"user"`
}

// respondSession mints a session token for a fully resolved user, sets the
// session cookie, and writes the envelope. The response is written exactly
// once.
func (h *Handlers) respondSession(w http.ResponseWriter, r *http.Request, user *domain.User, statusCode int) {
	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue session token", "error", err, "user_id", user.ID)
		response.InternalError(w, "Failed to establish session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	response.WriteJSON(w, statusCode, sessionEnvelope{
		Success: true,
		Token:   token,
		User:    user.ToUserInfo(),
	})
}

// Login handles local credential authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.respondSession(w, r, user, http.StatusOK)
}

// Register handles local account creation
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.respondSession(w, r, user, http.StatusCreated)
}

// GoogleLogin handles a Google identity assertion. A verified identity
// without a mobile number gets a pending challenge, never a session.
func (h *Handlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	outcome, err := h.linking.BeginThirdPartyLogin(r.Context(), req.Credential)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.respondOutcome(w, r, outcome, http.StatusOK)
}

// GoogleComplete finishes a pending registration by supplying the mobile
// number.
func (h *Handlers) GoogleComplete(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.PendingToken == "" {
		response.BadRequest(w, "pendingToken is required")
		return
	}

	outcome, err := h.linking.CompleteRegistration(r.Context(), req.PendingToken, req.Mobile)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.respondOutcome(w, r, outcome, http.StatusOK)
}

func (h *Handlers) respondOutcome(w http.ResponseWriter, r *http.Request, outcome domain.LoginOutcome, statusCode int) {
	switch outcome.Kind() {
	case domain.OutcomeLoggedIn:
		h.respondSession(w, r, outcome.User(), statusCode)
	case domain.OutcomeRequireMobile:
		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"requireMobile": true,
			"pendingToken":  outcome.PendingToken(),
		})
	default:
		logger.ErrorContext(r.Context(), "Unhandled login outcome", "kind", outcome.Kind())
		response.InternalError(w, "Internal server error")
	}
}

// Logout clears the session cookie
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.CurrentUser(r)
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "Authentication required", response.CodeMissingToken)
		return
	}

	user, err := h.authService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}
