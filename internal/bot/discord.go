package bot

import (
	"context"
	"time"

	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/logging"

	"github.com/bwmarrin/discordgo"
)

// interactionTimeout bounds a handler; interaction tokens stay valid for 15 minutes
const interactionTimeout = 5 * time.Minute

// Bot connects the dispatcher to the Discord gateway
type Bot struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	appID      string
	commands   []*discordgo.ApplicationCommand
}

func New(session *discordgo.Session, dispatcher *Dispatcher, appID string) *Bot {
	return &Bot{
		session:    session,
		dispatcher: dispatcher,
		appID:      appID,
		commands:   ApplicationCommands(),
	}
}

// Start opens the websocket connection; commands are registered as guilds become available
func (b *Bot) Start() error {
	b.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onInteraction)

	return b.session.Open()
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	logging.Info("Bot connected", "user", r.User.Username, "guilds", len(r.Guilds))
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	appID := b.appID
	if appID == "" && s.State.User != nil {
		appID = s.State.User.ID
	}

	if _, err := s.ApplicationCommandBulkOverwrite(appID, g.ID, b.commands); err != nil {
		logging.Error("Failed to register commands", "guild_id", g.ID, "error", err.Error())
		return
	}
	logging.Info("Commands registered", "guild_id", g.ID, "guild_name", g.Name, "commands", len(b.commands))
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	in := toInteraction(s, ic.Interaction)
	if in == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	b.dispatcher.Handle(ctx, in, &discordResponder{ctx: ctx, session: s, interaction: ic.Interaction})
}

func toInteraction(s *discordgo.Session, i *discordgo.Interaction) *Interaction {
	in := &Interaction{
		ID:        i.ID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user != nil {
		in.UserID = user.ID
		in.Username = user.Username
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		in.Command = data.Name
		for _, opt := range data.Options {
			if opt.Type != discordgo.ApplicationCommandOptionUser {
				continue
			}
			in.TargetUserID, _ = opt.Value.(string)
			if data.Resolved != nil {
				if u := data.Resolved.Users[in.TargetUserID]; u != nil {
					in.TargetUserName = u.Username
				}
			}
		}
	case discordgo.InteractionMessageComponent:
		in.CustomID = i.MessageComponentData().CustomID
	default:
		return nil
	}

	in.InThread = isThread(s, i.ChannelID)
	return in
}

func isThread(s *discordgo.Session, channelID string) bool {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			logging.Warn("Failed to resolve interaction channel", "channel_id", channelID, "error", err.Error())
			return false
		}
	}
	return ch.IsThread()
}

type discordResponder struct {
	ctx         context.Context
	session     *discordgo.Session
	interaction *discordgo.Interaction
	answered    bool
}

func (r *discordResponder) Defer(ephemeral bool) error {
	if r.answered {
		return nil
	}

	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if r.interaction.Type == discordgo.InteractionMessageComponent {
		resp.Type = discordgo.InteractionResponseDeferredMessageUpdate
	} else if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}

	if err := r.session.InteractionRespond(r.interaction, resp, discordgo.WithContext(r.ctx)); err != nil {
		return err
	}
	r.answered = true
	return nil
}

func (r *discordResponder) Send(reply Reply) error {
	var flags discordgo.MessageFlags
	if reply.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	embeds := gateway.ToDiscordEmbeds(reply.Embeds)
	components := gateway.ToDiscordComponents(reply.Buttons)

	if !r.answered {
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    reply.Content,
				Embeds:     embeds,
				Components: components,
				Flags:      flags,
			},
		}, discordgo.WithContext(r.ctx))
		if err != nil {
			return err
		}
		r.answered = true
		return nil
	}

	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content:    reply.Content,
		Embeds:     embeds,
		Components: components,
		Flags:      flags,
	}, discordgo.WithContext(r.ctx))
	return err
}

// GuildIDs lists the guilds the session is currently connected to
func (b *Bot) GuildIDs(_ context.Context) ([]string, error) {
	b.session.State.RLock()
	defer b.session.State.RUnlock()

	ids := make([]string, 0, len(b.session.State.Guilds))
	for _, g := range b.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids, nil
}
