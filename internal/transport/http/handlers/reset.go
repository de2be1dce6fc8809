package handlers

import (
	"net/http"

	"github.com/yanxyw/loop-api/internal/service"
	"github.com/yanxyw/loop-api/internal/transport/http/httperr"
)

type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword выпускает одноразовый код сброса. Email берётся из query.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httperr.WriteError(w, r, service.ErrUserNotFound)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), email); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "reset code sent"})
}

// VerifyResetCode проверяет код сброса без потребления.
func (h *Handlers) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var in verifyResetCodeRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.service.VerifyResetCode(r.Context(), in.Email, in.Code); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "code valid"})
}

// ResetPassword потребляет код сброса и устанавливает новый пароль.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.service.ResetPassword(r.Context(), in.Email, in.Code, in.NewPassword); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
