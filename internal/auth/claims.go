package auth

// Sources an admin credential can come from
const (
	SourceSharedSecret = "SHARED_SECRET"
	SourceAPIKey       = "API_KEY"
	SourceAdminToken   = "ADMIN_TOKEN"
)

// AdminClaims identifies who is calling an admin endpoint
type AdminClaims struct {
	Subject string
	Source  string
}

func (c *AdminClaims) String() string {
	if c == nil {
		return "anonymous"
	}
	return c.Source + ":" + c.Subject
}
