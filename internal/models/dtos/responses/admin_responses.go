package responses

import "time"

type GrantRoleResponse struct {
	GuildID            string   `json:"guildId"`
	UserID             string   `json:"userId"`
	RoleName           string   `json:"roleName"`
	AlreadyHeld        bool     `json:"alreadyHeld"`
	EntitlementGranted bool     `json:"entitlementGranted"`
	Revoked            []string `json:"revoked"`
}

type AdminTokenResponse struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"tokenId"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ActiveVote struct {
	ThreadID    string    `json:"threadId"`
	NomineeID   string    `json:"nomineeId"`
	NomineeName string    `json:"nomineeName"`
	NominatorID string    `json:"nominatorId"`
	VoteCount   int       `json:"voteCount"`
	Quorum      int       `json:"quorum"`
	CreatedAt   time.Time `json:"createdAt"`
	URL         string    `json:"url"`
}

type ActiveVoteGroup struct {
	Tier     string       `json:"tier"`
	RoleName string       `json:"roleName"`
	Votes    []ActiveVote `json:"votes"`
}
