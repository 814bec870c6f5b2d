package bot

import (
	"context"
	"fmt"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/services"

	"github.com/bwmarrin/discordgo"
)

// Services are the governance operations the commands call
type Services struct {
	Roster      *services.RosterService
	Nominations *services.NominationService
	Voting      *services.VotingService
}

type Handlers struct {
	svc       *Services
	verifyURL string
}

func NewHandlers(svc *Services, verifyURL string) *Handlers {
	return &Handlers{svc: svc, verifyURL: verifyURL}
}

// Register binds every command and button to d
func (h *Handlers) Register(d *Dispatcher) {
	d.Command(constants.CommandListMembers, h.ListMembers)
	d.Command(constants.CommandNominate, h.Nominate)
	d.Command(constants.CommandGetVerified, h.GetVerified)
	d.Command(constants.CommandUpdateVote, h.UpdateVote)
	d.Command(constants.CommandListActiveVotes, h.ListActiveVotes)
	d.Button(constants.ActionVoteYes, h.VoteYes)
}

// ApplicationCommands are the slash commands registered in every guild
func ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        constants.CommandListMembers,
			Description: "Lists all members in the guild!",
		},
		{
			Name:        constants.CommandNominate,
			Description: "Nominate a user for role advancement.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to nominate",
				Required:    true,
			}},
		},
		{
			Name:        constants.CommandGetVerified,
			Description: "Learn how to get verified.",
		},
		{
			Name:        constants.CommandUpdateVote,
			Description: "Update the vote count in the current voting thread.",
		},
		{
			Name:        constants.CommandListActiveVotes,
			Description: "Lists all active voting threads.",
		},
	}
}

func (h *Handlers) ListMembers(ctx context.Context, in *Interaction, r Responder) error {
	chunks, err := h.svc.Roster.MemberChunks(ctx, in.GuildID)
	if err != nil {
		return err
	}

	switch len(chunks) {
	case 0:
		return r.Send(Reply{Content: "No members have been synced yet.", Ephemeral: true})
	case 1:
		return r.Send(Reply{Content: "Members: " + chunks[0], Ephemeral: true})
	}

	if err := r.Send(Reply{Content: "Members list is too long, sending in chunks:", Ephemeral: true}); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := r.Send(Reply{Content: chunk, Ephemeral: true}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) Nominate(ctx context.Context, in *Interaction, r Responder) error {
	if in.GuildID == "" {
		return constants.ErrNotInGuild
	}
	if in.InThread {
		return constants.ErrNotTextChannel
	}
	if err := r.Defer(true); err != nil {
		return err
	}

	res, err := h.svc.Nominations.Nominate(ctx, services.NominationRequest{
		GuildID:     in.GuildID,
		ChannelID:   in.ChannelID,
		NominatorID: in.UserID,
		NomineeID:   in.TargetUserID,
		NomineeName: in.TargetUserName,
	})
	if err != nil {
		return err
	}
	return r.Send(Reply{Content: res.Reply, Ephemeral: true})
}

func (h *Handlers) GetVerified(_ context.Context, _ *Interaction, r Responder) error {
	return r.Send(Reply{
		Content: "Start your SCF journey by getting verified!",
		Buttons: []gateway.Button{{Label: "Get Verified", URL: h.verifyURL}},
	})
}

func (h *Handlers) UpdateVote(ctx context.Context, in *Interaction, r Responder) error {
	if in.GuildID == "" {
		return constants.ErrNotInGuild
	}
	if !in.InThread {
		return constants.ErrNotVotingThread
	}
	if err := r.Defer(true); err != nil {
		return err
	}

	res, err := h.svc.Voting.Refresh(ctx, in.GuildID, in.ChannelID)
	if err != nil {
		return err
	}
	if err := r.Send(Reply{Content: res.Message, Ephemeral: true}); err != nil {
		return err
	}
	if res.Outcome != nil {
		return r.Send(Reply{Content: res.Outcome.Message})
	}
	return nil
}

func (h *Handlers) ListActiveVotes(ctx context.Context, in *Interaction, r Responder) error {
	if in.GuildID == "" {
		return constants.ErrNotInGuild
	}
	if err := r.Defer(true); err != nil {
		return err
	}

	groups, err := h.svc.Voting.ListActive(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return r.Send(Reply{Content: "No active votes found.", Ephemeral: true})
	}

	if err := r.Send(Reply{Content: "Processing active votes...", Ephemeral: true}); err != nil {
		return err
	}
	for _, batch := range batchEmbeds(ActiveVoteEmbeds(groups)) {
		if err := r.Send(Reply{Embeds: batch}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) VoteYes(ctx context.Context, in *Interaction, r Responder) error {
	if in.GuildID == "" || !in.InThread {
		return constants.ErrNotVotingThread
	}

	nomineeID, tier, err := services.ParseVoteButtonID(in.CustomID)
	if err != nil {
		return fmt.Errorf("%w: %v", constants.ErrThreadNotFound, err)
	}
	if err := r.Defer(false); err != nil {
		return err
	}

	out, err := h.svc.Voting.OnVoteClick(ctx, services.VoteClick{
		GuildID:    in.GuildID,
		ThreadID:   in.ChannelID,
		VoterID:    in.UserID,
		NomineeID:  nomineeID,
		TargetTier: tier,
	})
	if err != nil {
		return err
	}
	return r.Send(Reply{Content: out.Message})
}
