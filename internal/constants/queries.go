package constants

// sqlx queries use '?' placeholders and are rebound for the active driver.
const (
	GetStatusByApiKey = `
	SELECT id, label, status FROM api_keys WHERE id = ?
	`

	InsertApiKey = `
	INSERT INTO api_keys (id, label, status, created_at) VALUES (?, ?, ?, ?)
	`

	RevokeApiKey = `
	UPDATE api_keys SET status = false WHERE id = ?
	`

	UpsertGuild = `
	INSERT INTO guilds (guild_id, guild_name, updated_at)
	VALUES (:guild_id, :guild_name, CURRENT_TIMESTAMP)
	ON CONFLICT (guild_id) DO UPDATE
	SET guild_name = EXCLUDED.guild_name,
	    updated_at = EXCLUDED.updated_at
	`

	UpsertRoles = `
	INSERT INTO roles (role_id, role_name, guild_id)
	VALUES (:role_id, :role_name, :guild_id)
	ON CONFLICT (role_id) DO UPDATE
	SET role_name = EXCLUDED.role_name,
	    guild_id = EXCLUDED.guild_id
	`

	UpsertMembers = `
	INSERT INTO members (member_id, username, discriminator, guild_id, updated_at)
	VALUES (:member_id, :username, :discriminator, :guild_id, CURRENT_TIMESTAMP)
	ON CONFLICT (member_id) DO UPDATE
	SET username = EXCLUDED.username,
	    discriminator = EXCLUDED.discriminator,
	    guild_id = EXCLUDED.guild_id,
	    updated_at = EXCLUDED.updated_at
	`

	UpsertUserRoles = `
	INSERT INTO user_roles (user_id, role_id, guild_id, role_assigned_at)
	VALUES (:user_id, :role_id, :guild_id, :role_assigned_at)
	ON CONFLICT (user_id, role_id, guild_id) DO NOTHING
	`
)
