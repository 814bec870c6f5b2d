package bot

import (
	"fmt"

	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/services"
)

// MaxEmbedFields is the platform limit of fields per embed
const MaxEmbedFields = 25

// maxEmbedsPerMessage is the platform limit of embeds per message
const maxEmbedsPerMessage = 10

const embedColor = 0x0099FF

// ActiveVoteEmbeds renders one embed per tier, continuing into further embeds past
// MaxEmbedFields sessions
func ActiveVoteEmbeds(groups []services.ActiveGroup) []gateway.Embed {
	var embeds []gateway.Embed

	for _, group := range groups {
		title := fmt.Sprintf("%s Nominations", group.RoleName)
		current := gateway.Embed{Title: title, Color: embedColor}

		for _, session := range group.Sessions {
			if len(current.Fields) == MaxEmbedFields {
				embeds = append(embeds, current)
				current = gateway.Embed{Title: title + " (cont.)", Color: embedColor}
			}
			current.Fields = append(current.Fields, gateway.EmbedField{
				Name: "Nomination",
				Value: fmt.Sprintf("Date: %s\nNominee: <@%s>\nNominator: <@%s>\nVotes: %d/%d\nLink: [Vote Here](%s)",
					session.CreatedAt.Format("2006-01-02"),
					session.NomineeID,
					session.NominatorID,
					session.VoteCount,
					session.Quorum,
					session.URL,
				),
				Inline: true,
			})
		}
		if len(current.Fields) > 0 {
			embeds = append(embeds, current)
		}
	}
	return embeds
}

// batchEmbeds splits embeds into groups that fit in one message
func batchEmbeds(embeds []gateway.Embed) [][]gateway.Embed {
	var batches [][]gateway.Embed
	for start := 0; start < len(embeds); start += maxEmbedsPerMessage {
		end := min(start+maxEmbedsPerMessage, len(embeds))
		batches = append(batches, embeds[start:end])
	}
	return batches
}
