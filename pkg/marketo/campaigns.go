package marketo

import (
	"context"
	"time"
)

// GetCampaign retrieves a smart campaign by id.
func (c *Client) GetCampaign(ctx context.Context, id int) (*Result, error) {
	return c.Execute(ctx, OpGetCampaign, Args{"id": id})
}

// GetCampaigns browses smart campaigns, optionally filtered by ids or names.
func (c *Client) GetCampaigns(ctx context.Context, ids []int, names []string, nextPageToken string) (*Result, error) {
	args := Args{}
	withOptional(args, "id", ids)
	withOptional(args, "name", names)
	withOptional(args, "nextPageToken", nextPageToken)
	return c.Execute(ctx, OpGetCampaigns, args)
}

// RequestCampaign runs a trigger campaign for the given leads.
func (c *Client) RequestCampaign(ctx context.Context, id int, leadIDs []int, tokens []Token) (*Result, error) {
	input := map[string]any{"leads": idRecords(leadIDs)}
	if len(tokens) > 0 {
		input["tokens"] = tokens
	}
	return c.Execute(ctx, OpRequestCampaign, Args{"id": id, "input": input})
}

// ScheduleCampaign schedules a batch campaign. A zero runAt runs it five
// minutes from now, as Marketo does.
func (c *Client) ScheduleCampaign(ctx context.Context, id int, runAt time.Time, tokens []Token, cloneToProgramName string) (*Result, error) {
	input := map[string]any{}
	if !runAt.IsZero() {
		input["runAt"] = runAt.UTC().Format(time.RFC3339)
	}
	if len(tokens) > 0 {
		input["tokens"] = tokens
	}
	if cloneToProgramName != "" {
		input["cloneToProgramName"] = cloneToProgramName
	}
	args := Args{"id": id}
	if len(input) > 0 {
		args["input"] = input
	}
	return c.Execute(ctx, OpScheduleCampaign, args)
}
