package api

import (
	"encoding/json"
	"net/http"
	"time"

	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/models/dtos/requests"
	"scf-community/governor/internal/models/dtos/responses"
)

const maxTokenTTL = 24 * time.Hour

// IssueAdminToken handles POST /api/v1/admin/tokens. The route is guarded by the shared secret.
func (h *Handlers) IssueAdminToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Tokens == nil {
			respondWithError(w, http.StatusNotImplemented, "Admin tokens are not configured")
			return
		}

		var req requests.IssueTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Subject == "" {
			respondWithError(w, http.StatusBadRequest, "subject is required")
			return
		}

		ttl := h.deps.TokenTTL
		if req.TTL != "" {
			parsed, err := time.ParseDuration(req.TTL)
			if err != nil || parsed <= 0 || parsed > maxTokenTTL {
				respondWithError(w, http.StatusBadRequest, "ttl must be a positive duration up to 24h")
				return
			}
			ttl = parsed
		}

		signed, tok, err := h.deps.Tokens.Issue(req.Subject, ttl)
		if err != nil {
			logging.Error("Failed to issue admin token", "request_id", auth.GetRequestID(r.Context()), "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		logging.Info("Admin token issued", "subject", tok.Subject, "token_id", tok.TokenID, "expires_at", tok.ExpiresAt)

		respondWithSuccess(w, http.StatusCreated, &responses.AdminTokenResponse{
			Token:     signed,
			TokenID:   tok.TokenID,
			Subject:   tok.Subject,
			ExpiresAt: tok.ExpiresAt,
		})
	}
}
