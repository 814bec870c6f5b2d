package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
)

type HandlerFunc func(ctx context.Context, in *Interaction, r Responder) error

// Dispatcher routes interactions to handlers by command name or button action
type Dispatcher struct {
	commands map[string]HandlerFunc
	buttons  map[string]HandlerFunc
	metrics  *metrics.MetricsRegistry
}

func NewDispatcher(metricsReg *metrics.MetricsRegistry) *Dispatcher {
	return &Dispatcher{
		commands: make(map[string]HandlerFunc),
		buttons:  make(map[string]HandlerFunc),
		metrics:  metricsReg,
	}
}

func (d *Dispatcher) Command(name string, h HandlerFunc) {
	d.commands[name] = h
}

// Button registers h for custom ids of the form <action>:...
func (d *Dispatcher) Button(action string, h HandlerFunc) {
	d.buttons[action] = h
}

// Handle runs the handler of an interaction. Errors and panics become an ephemeral reply.
func (d *Dispatcher) Handle(ctx context.Context, in *Interaction, r Responder) {
	name, h := d.route(in)
	log := logging.WithInteraction(in.ID, in.GuildID, in.UserID, name)

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("Interaction handler panicked", "panic", rec, "stack", string(debug.Stack()))
			d.metrics.Interaction(name, "panic")
			if err := r.Send(Reply{Content: constants.UserMessage(nil), Ephemeral: true}); err != nil {
				log.Warnw("Failed to reply after panic", "error", err.Error())
			}
		}
	}()

	if h == nil {
		log.Warnw("No handler for interaction", "custom_id", in.CustomID)
		d.metrics.Interaction(name, "unknown")
		return
	}

	err := h(ctx, in, r)
	if err == nil {
		d.metrics.Interaction(name, "ok")
		return
	}

	if isGovernanceError(err) {
		log.Infow("Interaction rejected", "reason", err.Error())
		d.metrics.Interaction(name, "rejected")
	} else {
		log.Errorw("Interaction failed", "error", err.Error())
		d.metrics.Interaction(name, "failed")
	}

	if sendErr := r.Send(Reply{Content: constants.UserMessage(err), Ephemeral: true}); sendErr != nil {
		log.Warnw("Failed to send error reply", "error", sendErr.Error())
	}
}

func (d *Dispatcher) route(in *Interaction) (string, HandlerFunc) {
	if in.IsComponent() {
		action, _, _ := strings.Cut(in.CustomID, ":")
		return action, d.buttons[action]
	}
	return in.Command, d.commands[in.Command]
}

var expectedErrors = []error{
	constants.ErrSelfNomination,
	constants.ErrNotNominable,
	constants.ErrAlreadyAtTarget,
	constants.ErrUnauthorized,
	constants.ErrDuplicateVote,
	constants.ErrThreadNotFound,
	constants.ErrAlreadyNominated,
	constants.ErrCooldownActive,
	constants.ErrSessionClosed,
	constants.ErrNotInGuild,
	constants.ErrNotVotingThread,
	constants.ErrNotTextChannel,
	constants.ErrMemberNotFound,
}

// isGovernanceError reports whether err is a rule rejection rather than a fault
func isGovernanceError(err error) bool {
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
