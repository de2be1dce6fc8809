package handlers

import (
	"net/http"

	"github.com/yanxyw/loop-api/internal/service"
	"github.com/yanxyw/loop-api/internal/transport/http/httperr"
)

type resendVerificationRequest struct {
	Email string `json:"email"`
}

// VerifyEmail подтверждает email по одноразовому токену из query.
func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

// ResendVerification повторно выпускает verification-токен.
func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var in resendVerificationRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidEmail)
		return
	}

	if err := h.service.ResendVerification(r.Context(), in.Email); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "verification email sent"})
}
