package model

// ProposalState is the lifecycle stage of a governance proposal.
type ProposalState string

const (
	ProposalPending ProposalState = "pending"
	ProposalActive  ProposalState = "active"
	ProposalClosed  ProposalState = "closed"
)

// ParseProposalState returns false for states outside the known set.
func ParseProposalState(s string) (ProposalState, bool) {
	switch ProposalState(s) {
	case ProposalPending, ProposalActive, ProposalClosed:
		return ProposalState(s), true
	default:
		return "", false
	}
}

// GovernanceProposal is a vote mapped onto a tracked protocol.
// Scores is parallel to Choices.
type GovernanceProposal struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	State        ProposalState `json:"state"`
	SpaceID      string        `json:"space"`
	SpaceName    string        `json:"spaceName"`
	ProtocolSlug string        `json:"protocolSlug"`
	Author       string        `json:"author"`
	Created      int64         `json:"created"`
	Start        int64         `json:"start"`
	End          int64         `json:"end"`
	Choices      []string      `json:"choices"`
	Scores       []float64     `json:"scores"`
	ScoresTotal  float64       `json:"scoresTotal"`
	Votes        int           `json:"votes"`
	Quorum       float64       `json:"quorum"`
	Link         string        `json:"link"`
}
