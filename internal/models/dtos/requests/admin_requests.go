package requests

type GrantRoleRequest struct {
	GuildID  string `json:"guildId"`
	UserID   string `json:"userId"`
	RoleName string `json:"roleName"`
	Auth     string `json:"auth"`
}

type IssueTokenRequest struct {
	Subject string `json:"subject"`
	// TTL is a Go duration string, e.g. "15m"
	TTL string `json:"ttl,omitempty"`
}
