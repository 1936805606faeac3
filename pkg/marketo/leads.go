package marketo

import "context"

// GetLead retrieves a single lead by id.
func (c *Client) GetLead(ctx context.Context, id int, fields []string) (*Result, error) {
	args := Args{"id": id}
	withOptional(args, "fields", fields)
	return c.Execute(ctx, OpGetLead, args)
}

// GetLeadsByFilter retrieves leads whose filterType field matches any of
// values. Pass the previous result's NextPageToken to continue.
func (c *Client) GetLeadsByFilter(ctx context.Context, filterType string, values []string, fields []string, nextPageToken string) (*Result, error) {
	args := Args{"filterType": filterType, "filterValues": values}
	withOptional(args, "fields", fields)
	withOptional(args, "nextPageToken", nextPageToken)
	return c.Execute(ctx, OpGetLeadsByFilter, args)
}

// GetLeadsByListID retrieves the members of a static list.
func (c *Client) GetLeadsByListID(ctx context.Context, listID int, fields []string, nextPageToken string) (*Result, error) {
	args := Args{"listId": listID}
	withOptional(args, "fields", fields)
	withOptional(args, "nextPageToken", nextPageToken)
	return c.Execute(ctx, OpGetLeadsByListID, args)
}

// CreateUpdateLeads upserts leads. An empty action means createOrUpdate and
// an empty lookupField means email.
func (c *Client) CreateUpdateLeads(ctx context.Context, leads []map[string]any, action, lookupField string) (*Result, error) {
	args := Args{"input": leads}
	withOptional(args, "action", action)
	withOptional(args, "lookupField", lookupField)
	return c.Execute(ctx, OpCreateUpdateLeads, args)
}

// DeleteLeads deletes leads by id.
func (c *Client) DeleteLeads(ctx context.Context, ids []int) (*Result, error) {
	return c.Execute(ctx, OpDeleteLeads, Args{"input": idRecords(ids)})
}

// DescribeLeads returns the lead field metadata.
func (c *Client) DescribeLeads(ctx context.Context) (*Result, error) {
	return c.Execute(ctx, OpDescribeLeads, nil)
}

// MergeLeads merges losers into winner.
func (c *Client) MergeLeads(ctx context.Context, winner int, losers []int, mergeInCRM bool) (*Result, error) {
	args := Args{"id": winner, "leadIds": losers}
	if mergeInCRM {
		args["mergeInCRM"] = true
	}
	return c.Execute(ctx, OpMergeLeads, args)
}

// AssociateLead ties a Munchkin cookie to a known lead.
func (c *Client) AssociateLead(ctx context.Context, id int, cookie string) (*Result, error) {
	return c.Execute(ctx, OpAssociateLead, Args{"id": id, "cookie": cookie})
}

// GetLeadPartitions lists the lead partitions of the instance.
func (c *Client) GetLeadPartitions(ctx context.Context) (*Result, error) {
	return c.Execute(ctx, OpGetLeadPartitions, nil)
}

func idRecords(ids []int) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id})
	}
	return out
}
