package constants

// Audit-log reasons attached to role mutations.
const (
	ReasonPromotion     = "%s has passed the vote to become a %s"
	ReasonRevocation    = "%s has passed the vote to become a %s, and no longer needs the %s role"
	ReasonEntitlement   = "%s has passed the vote to become a %s and may now vote"
	ReasonAdminGrant    = "%s was granted %s through the admin endpoint"
	ReasonFixUserRoles  = "member held more than one tier role; keeping %s"
	ReasonNominationRun = "Nomination for %s to become a %s"
)
