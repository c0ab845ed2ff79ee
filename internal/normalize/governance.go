package normalize

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/validation"
)

const proposalLinkFormat = "https://snapshot.org/#/%s/proposal/%s"

// Proposals maps raw proposals onto tracked protocols. spaces maps a
// governance space id to a protocol slug; unmapped spaces keep the raw space
// id as their slug. Proposals in an unrecognized state are dropped.
func Proposals(raw []fetch.SnapshotProposal, spaces map[string]string) []model.GovernanceProposal {
	out := make([]model.GovernanceProposal, 0, len(raw))
	for _, p := range raw {
		state, ok := model.ParseProposalState(p.State)
		if !ok {
			logrus.WithFields(logrus.Fields{"id": p.ID, "state": p.State}).Debug("Dropping proposal with unknown state")
			continue
		}

		slug, ok := spaces[p.Space.ID]
		if !ok {
			slug = p.Space.ID
		}

		choices := append([]string{}, p.Choices...)
		scores := make([]float64, len(choices))
		for i := range scores {
			if i < len(p.Scores) {
				scores[i] = validation.FiniteOr(p.Scores[i], 0)
			}
		}

		total := 0.0
		if st := validation.Finite(p.ScoresTotal); st != nil {
			total = *st
		} else {
			for _, s := range scores {
				total += s
			}
		}

		out = append(out, model.GovernanceProposal{
			ID:           p.ID,
			Title:        p.Title,
			State:        state,
			SpaceID:      p.Space.ID,
			SpaceName:    p.Space.Name,
			ProtocolSlug: slug,
			Author:       p.Author,
			Created:      p.Created,
			Start:        p.Start,
			End:          p.End,
			Choices:      choices,
			Scores:       scores,
			ScoresTotal:  total,
			Votes:        p.Votes,
			Quorum:       model.ValueOr(validation.Finite(p.Quorum), 0),
			Link:         fmt.Sprintf(proposalLinkFormat, p.Space.ID, p.ID),
		})
	}
	return out
}
