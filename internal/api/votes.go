package api

import (
	"net/http"

	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/models/dtos/responses"
)

// ListActiveVotes handles GET /api/v1/votes/active?guildId=
func (h *Handlers) ListActiveVotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := r.URL.Query().Get("guildId")
		if guildID == "" {
			respondWithError(w, http.StatusBadRequest, "guildId is required")
			return
		}

		groups, err := h.deps.Votes.ListActive(r.Context(), guildID)
		if err != nil {
			logging.Error("Failed to list active votes", "request_id", auth.GetRequestID(r.Context()), "guild_id", guildID, "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, constants.UserMessage(err))
			return
		}

		out := make([]responses.ActiveVoteGroup, 0, len(groups))
		for _, g := range groups {
			group := responses.ActiveVoteGroup{
				Tier:     g.Tier.Key(),
				RoleName: g.RoleName,
				Votes:    make([]responses.ActiveVote, 0, len(g.Sessions)),
			}
			for _, s := range g.Sessions {
				group.Votes = append(group.Votes, responses.ActiveVote{
					ThreadID:    s.ThreadID,
					NomineeID:   s.NomineeID,
					NomineeName: s.NomineeName,
					NominatorID: s.NominatorID,
					VoteCount:   s.VoteCount,
					Quorum:      s.Quorum,
					CreatedAt:   s.CreatedAt,
					URL:         s.URL,
				})
			}
			out = append(out, group)
		}
		respondWithSuccess(w, http.StatusOK, &out)
	}
}
