package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"scf-community/governor/internal/constants"

	"github.com/bwmarrin/discordgo"
)

const membersPageSize = 1000

// DiscordGateway implements Gateway over the Discord REST API
type DiscordGateway struct {
	session *discordgo.Session
}

func NewDiscordGateway(session *discordgo.Session) *DiscordGateway {
	return &DiscordGateway{session: session}
}

// classify wraps a discordgo error so callers can tell retryable failures from the rest
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", constants.ErrGatewayUnavailable, op, err)
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		switch {
		case code == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: %w: %w", constants.ErrGatewayUnavailable, op, ErrTransient, ErrRateLimited)
		case code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s: %w: status %d", constants.ErrGatewayUnavailable, op, ErrTransient, code)
		}
		return fmt.Errorf("%w: %s: %v", constants.ErrGatewayUnavailable, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %w: %v", constants.ErrGatewayUnavailable, op, ErrTransient, err)
	}
	return fmt.Errorf("%w: %s: %v", constants.ErrGatewayUnavailable, op, err)
}

func (g *DiscordGateway) SendMessage(ctx context.Context, channelID string, msg Message) (string, error) {
	sent, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     ToDiscordEmbeds(msg.Embeds),
		Components: ToDiscordComponents(msg.Buttons),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("send message", err)
	}
	return sent.ID, nil
}

func (g *DiscordGateway) CreateThread(ctx context.Context, channelID, name string, autoArchive time.Duration, reason string) (string, error) {
	thread, err := g.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: ArchiveMinutes(autoArchive),
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return "", classify("create thread", err)
	}
	return thread.ID, nil
}

func (g *DiscordGateway) EditThreadName(ctx context.Context, threadID, name string) error {
	_, err := g.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return classify("rename thread", err)
}

func (g *DiscordGateway) LockThread(ctx context.Context, threadID string) error {
	locked := true
	_, err := g.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Locked: &locked}, discordgo.WithContext(ctx))
	return classify("lock thread", err)
}

func (g *DiscordGateway) ArchiveThread(ctx context.Context, threadID string) error {
	archived := true
	_, err := g.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Archived: &archived}, discordgo.WithContext(ctx))
	return classify("archive thread", err)
}

func (g *DiscordGateway) FetchMemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	member, err := g.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch member", err)
	}
	return member.Roles, nil
}

func (g *DiscordGateway) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	err := g.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return classify("add role", err)
}

func (g *DiscordGateway) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	err := g.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return classify("remove role", err)
}

func (g *DiscordGateway) FetchRoleCatalog(ctx context.Context, guildID string) ([]Role, error) {
	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch roles", err)
	}

	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (g *DiscordGateway) FetchGuild(ctx context.Context, guildID string) (*Guild, error) {
	guild, err := g.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch guild", err)
	}
	return &Guild{ID: guild.ID, Name: guild.Name}, nil
}

// FetchMembers pages through the full roster
func (g *DiscordGateway) FetchMembers(ctx context.Context, guildID string) ([]Member, error) {
	var out []Member
	after := ""

	for {
		page, err := g.session.GuildMembers(guildID, after, membersPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify("fetch members", err)
		}

		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, Member{
				ID:            m.User.ID,
				Username:      m.User.Username,
				Discriminator: m.User.Discriminator,
				RoleIDs:       m.Roles,
			})
			after = m.User.ID
		}

		if len(page) < membersPageSize {
			return out, nil
		}
	}
}

func (g *DiscordGateway) ActiveThreadIDs(ctx context.Context, guildID string) (map[string]bool, error) {
	list, err := g.session.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch active threads", err)
	}

	ids := make(map[string]bool, len(list.Threads))
	for _, th := range list.Threads {
		ids[th.ID] = true
	}
	return ids, nil
}

// ToDiscordEmbeds converts embeds to their discordgo form
func ToDiscordEmbeds(embeds []Embed) []*discordgo.MessageEmbed {
	if len(embeds) == 0 {
		return nil
	}

	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		me := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		if !e.Timestamp.IsZero() {
			me.Timestamp = e.Timestamp.Format(time.RFC3339)
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out = append(out, me)
	}
	return out
}

// ToDiscordComponents puts buttons on a single action row
func ToDiscordComponents(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}

	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		if b.URL != "" {
			row.Components = append(row.Components, discordgo.Button{Label: b.Label, Style: discordgo.LinkButton, URL: b.URL})
			continue
		}
		row.Components = append(row.Components, discordgo.Button{Label: b.Label, Style: discordgo.SuccessButton, CustomID: b.CustomID})
	}
	return []discordgo.MessageComponent{row}
}
