package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
)

func TestProposals(t *testing.T) {
	raw := []fetch.SnapshotProposal{
		{
			ID: "0x1", Title: "Onboard asset", State: "active", Author: "0xa",
			Created: 100, Start: 110, End: 200,
			Choices: []string{"For", "Against", "Abstain"}, Scores: []float64{60, 40},
			Votes: 12, Quorum: f(50),
			Space: fetch.SnapshotSpace{ID: "aave.eth", Name: "Aave"},
		},
		{
			ID: "0x2", State: "closed", Choices: []string{"Yes"}, Scores: []float64{5}, ScoresTotal: f(5),
			Space: fetch.SnapshotSpace{ID: "other.eth", Name: "Other"},
		},
		{ID: "0x3", State: "archived", Space: fetch.SnapshotSpace{ID: "aave.eth"}},
	}

	got := Proposals(raw, map[string]string{"aave.eth": "aave"})
	require.Len(t, got, 2, "unknown state is dropped")

	p := got[0]
	assert.Equal(t, model.ProposalActive, p.State)
	assert.Equal(t, "aave", p.ProtocolSlug)
	assert.Equal(t, "aave.eth", p.SpaceID)
	assert.Equal(t, []float64{60, 40, 0}, p.Scores, "scores are aligned with choices")
	assert.Equal(t, 100.0, p.ScoresTotal, "missing total is summed from scores")
	assert.Equal(t, 50.0, p.Quorum)
	assert.Equal(t, "https://snapshot.org/#/aave.eth/proposal/0x1", p.Link)

	assert.Equal(t, "other.eth", got[1].ProtocolSlug, "unmapped space falls back to its id")
	assert.Equal(t, 5.0, got[1].ScoresTotal)
	assert.Zero(t, got[1].Quorum)
}

func TestProposals_Idempotent(t *testing.T) {
	raw := []fetch.SnapshotProposal{{ID: "a", State: "pending", Choices: []string{"x"}}}
	assert.Equal(t, Proposals(raw, nil), Proposals(raw, nil))
}
