package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const proposalsQuery = `query Proposals($spaces: [String!]!, $first: Int!, $state: String) {
  proposals(
    first: $first,
    where: { space_in: $spaces, state: $state },
    orderBy: "created",
    orderDirection: desc
  ) {
    id
    title
    state
    author
    created
    start
    end
    choices
    scores
    scores_total
    votes
    quorum
    space { id name }
  }
}`

// SnapshotSpace identifies a governance space.
type SnapshotSpace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SnapshotProposal is a raw proposal from the hub.
type SnapshotProposal struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	State       string        `json:"state"`
	Author      string        `json:"author"`
	Created     int64         `json:"created"`
	Start       int64         `json:"start"`
	End         int64         `json:"end"`
	Choices     []string      `json:"choices"`
	Scores      []float64     `json:"scores"`
	ScoresTotal *float64      `json:"scores_total"`
	Votes       int           `json:"votes"`
	Quorum      *float64      `json:"quorum"`
	Space       SnapshotSpace `json:"space"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// Snapshot is the governance hub GraphQL client.
type Snapshot struct {
	client *Client
	url    string
}

// NewSnapshot creates a hub client for the given GraphQL endpoint.
func NewSnapshot(graphqlURL string, client *Client) *Snapshot {
	return &Snapshot{client: client, url: graphqlURL}
}

// Client returns the underlying provider client.
func (s *Snapshot) Client() *Client {
	return s.client
}

// Proposals retrieves up to first proposals across spaces, newest first.
// An empty state matches every state.
func (s *Snapshot) Proposals(ctx context.Context, spaces []string, first int, state string) ([]SnapshotProposal, error) {
	if len(spaces) == 0 {
		return nil, nil
	}

	vars := map[string]any{
		"spaces": spaces,
		"first":  first,
	}
	if state != "" {
		vars["state"] = state
	}

	var out struct {
		Data struct {
			Proposals []SnapshotProposal `json:"proposals"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	req := graphQLRequest{Query: proposalsQuery, Variables: vars}
	if err := s.client.PostJSON(ctx, s.url, req, &out); err != nil {
		return nil, fmt.Errorf("fetch proposals: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("fetch proposals: %w", errors.New(strings.Join(msgs, "; ")))
	}
	return out.Data.Proposals, nil
}
