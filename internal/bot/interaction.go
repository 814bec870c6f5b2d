package bot

import "scf-community/governor/internal/gateway"

// Interaction is a slash command or button click, stripped of platform types
type Interaction struct {
	ID        string
	GuildID   string
	ChannelID string
	UserID    string
	Username  string
	InThread  bool

	// Command is set for slash commands
	Command        string
	TargetUserID   string
	TargetUserName string

	// CustomID is set for button clicks
	CustomID string
}

// IsComponent reports whether the interaction is a button click
func (in *Interaction) IsComponent() bool {
	return in.CustomID != ""
}

type Reply struct {
	Content   string
	Embeds    []gateway.Embed
	Buttons   []gateway.Button
	Ephemeral bool
}

// Responder answers one interaction. The first Send answers it, later sends follow up.
type Responder interface {
	// Defer acknowledges the interaction so slow work can finish before the first Send
	Defer(ephemeral bool) error
	Send(reply Reply) error
}
