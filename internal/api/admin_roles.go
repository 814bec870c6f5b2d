package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/models/dtos/requests"
	"scf-community/governor/internal/models/dtos/responses"
)

// GrantRole handles POST /api/v1/admin/roles/grant
func (h *Handlers) GrantRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requests.GrantRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		claims, err := h.deps.Authn.Authenticate(r.Context(), req.Auth)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			logging.Error("Admin authentication failed", "request_id", auth.GetRequestID(r.Context()), "error", err.Error())
			respondWithError(w, http.StatusServiceUnavailable, "Authentication unavailable")
			return
		}

		if req.GuildID == "" || req.UserID == "" || req.RoleName == "" {
			respondWithError(w, http.StatusBadRequest, "guildId, userId and roleName are required")
			return
		}

		log := logging.WithRequest(auth.GetRequestID(r.Context()), req.GuildID, "admin/roles/grant")

		result, err := h.deps.Roles.GrantRole(r.Context(), req.GuildID, req.UserID, req.RoleName)
		if err != nil {
			status := grantErrorStatus(err)
			if status >= http.StatusInternalServerError {
				log.Errorw("Role grant failed", "user_id", req.UserID, "role", req.RoleName, "admin", claims.String(), "error", err.Error())
			} else {
				log.Infow("Role grant rejected", "user_id", req.UserID, "role", req.RoleName, "admin", claims.String(), "error", err.Error())
			}
			respondWithError(w, status, constants.UserMessage(err))
			return
		}

		log.Infow("Role granted", "user_id", req.UserID, "role", req.RoleName, "admin", claims.String())

		resp := responses.GrantRoleResponse{
			GuildID:            req.GuildID,
			UserID:             req.UserID,
			RoleName:           req.RoleName,
			AlreadyHeld:        result.AlreadyHeld,
			EntitlementGranted: result.EntitlementGranted,
			Revoked:            make([]string, 0, len(result.Revoked)),
		}
		for _, t := range result.Revoked {
			resp.Revoked = append(resp.Revoked, t.Key())
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}

func grantErrorStatus(err error) int {
	switch {
	case errors.Is(err, constants.ErrAlreadyAtTarget):
		return http.StatusConflict
	case errors.Is(err, constants.ErrNotNominable):
		return http.StatusBadRequest
	case errors.Is(err, constants.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, constants.ErrRoleNotConfigured):
		return http.StatusUnprocessableEntity
	case errors.Is(err, constants.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
