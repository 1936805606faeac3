package marketo

import (
	"context"
	"fmt"
	"time"
)

// GetActivityTypes returns the activity type catalog.
func (c *Client) GetActivityTypes(ctx context.Context) ([]ActivityType, error) {
	res, err := c.Execute(ctx, OpGetActivityTypes, nil)
	if err != nil {
		return nil, err
	}
	var types []ActivityType
	if err := res.Decode(&types); err != nil {
		return nil, err
	}
	return types, nil
}

// GetPagingToken returns a paging token positioned at since, the starting
// point for activity and lead change feeds.
func (c *Client) GetPagingToken(ctx context.Context, since time.Time) (string, error) {
	res, err := c.Execute(ctx, OpGetPagingToken, Args{"sinceDatetime": since.UTC().Format(time.RFC3339)})
	if err != nil {
		return "", err
	}
	if res.NextPageToken == "" {
		return "", fmt.Errorf("paging token response carried no nextPageToken")
	}
	return res.NextPageToken, nil
}

// GetLeadActivities reads one page of the activity feed.
func (c *Client) GetLeadActivities(ctx context.Context, nextPageToken string, activityTypeIDs []int, listID int, leadIDs []int) (*Result, error) {
	args := Args{"nextPageToken": nextPageToken, "activityTypeIds": activityTypeIDs}
	withOptional(args, "listId", listID)
	withOptional(args, "leadIds", leadIDs)
	return c.Execute(ctx, OpGetLeadActivities, args)
}

// GetLeadChanges reads one page of data value changes for fields.
func (c *Client) GetLeadChanges(ctx context.Context, nextPageToken string, fields []string, listID int, leadIDs []int) (*Result, error) {
	args := Args{"nextPageToken": nextPageToken, "fields": fields}
	withOptional(args, "listId", listID)
	withOptional(args, "leadIds", leadIDs)
	return c.Execute(ctx, OpGetLeadChanges, args)
}

// AddCustomActivities records custom activities. Every item must carry
// leadId, activityDate, activityTypeId and primaryAttributeValue; a missing
// one fails with a BuildError before the request is sent.
func (c *Client) AddCustomActivities(ctx context.Context, input []map[string]any) (*Result, error) {
	return c.Execute(ctx, OpAddCustomActivities, Args{"input": input})
}
