package marketo

import "context"

// GetList retrieves a static list by id.
func (c *Client) GetList(ctx context.Context, id int) (*Result, error) {
	return c.Execute(ctx, OpGetList, Args{"id": id})
}

// GetLists browses static lists, optionally filtered by ids or names.
func (c *Client) GetLists(ctx context.Context, ids []int, names []string, nextPageToken string) (*Result, error) {
	args := Args{}
	withOptional(args, "id", ids)
	withOptional(args, "name", names)
	withOptional(args, "nextPageToken", nextPageToken)
	return c.Execute(ctx, OpGetLists, args)
}

// AddLeadsToList adds leads to a static list. Lead ids are sent as
// repeated id parameters.
func (c *Client) AddLeadsToList(ctx context.Context, listID int, leadIDs []int) (*Result, error) {
	return c.Execute(ctx, OpAddLeadsToList, Args{"listId": listID, "id": leadIDs})
}

// RemoveLeadsFromList removes leads from a static list.
func (c *Client) RemoveLeadsFromList(ctx context.Context, listID int, leadIDs []int) (*Result, error) {
	return c.Execute(ctx, OpRemoveLeadsFromList, Args{"listId": listID, "id": leadIDs})
}

// MemberOfList checks list membership for each lead.
func (c *Client) MemberOfList(ctx context.Context, listID int, leadIDs []int) (*Result, error) {
	return c.Execute(ctx, OpMemberOfList, Args{"listId": listID, "id": leadIDs})
}
