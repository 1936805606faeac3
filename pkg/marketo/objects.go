package marketo

import (
	"context"

	"go.uber.org/zap"
)

// Lookup queries an object family by filter. For custom objects, name is
// the object's API name; other families ignore it. An empty match is
// reported as unsuccessful with a "<Family> not found" error.
func (c *Client) Lookup(ctx context.Context, family, name, filterType string, values []string, fields []string) (*Result, error) {
	ops, err := resolveFamily(family)
	if err != nil {
		c.logger.Error("Failed to resolve object family", zap.Error(err), zap.String("family", family))
		return nil, err
	}
	args := Args{"filterType": filterType, "filterValues": values}
	if family == FamilyCustomObjects {
		args["name"] = name
	}
	withOptional(args, "fields", fields)
	return c.Execute(ctx, ops.get, args)
}

// DescribeObject returns the field metadata of an object family.
func (c *Client) DescribeObject(ctx context.Context, family, name string) (*Result, error) {
	ops, err := resolveFamily(family)
	if err != nil {
		c.logger.Error("Failed to resolve object family", zap.Error(err), zap.String("family", family))
		return nil, err
	}
	args := Args{}
	if family == FamilyCustomObjects {
		args["name"] = name
	}
	return c.Execute(ctx, ops.describe, args)
}

// ListCustomObjects lists custom object types, optionally by API name.
func (c *Client) ListCustomObjects(ctx context.Context, names []string) (*Result, error) {
	args := Args{}
	withOptional(args, "names", names)
	return c.Execute(ctx, OpListCustomObjects, args)
}

// GetCustomObjects looks up custom object records. Use
// Result.CustomObjects to read the matches.
func (c *Client) GetCustomObjects(ctx context.Context, name, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilyCustomObjects, name, filterType, values, fields)
}

// CreateUpdateCustomObjects upserts custom object records.
func (c *Client) CreateUpdateCustomObjects(ctx context.Context, name string, input []map[string]any, action, dedupeBy string) (*Result, error) {
	args := Args{"name": name, "input": input}
	withOptional(args, "action", action)
	withOptional(args, "dedupeBy", dedupeBy)
	return c.Execute(ctx, OpCreateUpdateCustomObjects, args)
}

// DeleteCustomObjects deletes custom object records matched by deleteBy.
func (c *Client) DeleteCustomObjects(ctx context.Context, name string, input []map[string]any, deleteBy string) (*Result, error) {
	args := Args{"name": name, "input": input}
	withOptional(args, "deleteBy", deleteBy)
	return c.Execute(ctx, OpDeleteCustomObjects, args)
}

// GetCompanies looks up companies by filter.
func (c *Client) GetCompanies(ctx context.Context, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilyCompanies, "", filterType, values, fields)
}

// CreateUpdateCompanies upserts companies.
func (c *Client) CreateUpdateCompanies(ctx context.Context, input []map[string]any, action, dedupeBy string) (*Result, error) {
	args := Args{"input": input}
	withOptional(args, "action", action)
	withOptional(args, "dedupeBy", dedupeBy)
	return c.Execute(ctx, OpCreateUpdateCompanies, args)
}

// DeleteCompanies deletes companies matched by deleteBy.
func (c *Client) DeleteCompanies(ctx context.Context, input []map[string]any, deleteBy string) (*Result, error) {
	args := Args{"input": input}
	withOptional(args, "deleteBy", deleteBy)
	return c.Execute(ctx, OpDeleteCompanies, args)
}

// GetOpportunities looks up opportunities by filter.
func (c *Client) GetOpportunities(ctx context.Context, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilyOpportunities, "", filterType, values, fields)
}

// CreateUpdateOpportunities upserts opportunities.
func (c *Client) CreateUpdateOpportunities(ctx context.Context, input []map[string]any, action, dedupeBy string) (*Result, error) {
	args := Args{"input": input}
	withOptional(args, "action", action)
	withOptional(args, "dedupeBy", dedupeBy)
	return c.Execute(ctx, OpCreateUpdateOpportunities, args)
}

// DeleteOpportunities deletes opportunities matched by deleteBy.
func (c *Client) DeleteOpportunities(ctx context.Context, input []map[string]any, deleteBy string) (*Result, error) {
	args := Args{"input": input}
	withOptional(args, "deleteBy", deleteBy)
	return c.Execute(ctx, OpDeleteOpportunities, args)
}

// GetOpportunityRoles looks up opportunity roles by filter.
func (c *Client) GetOpportunityRoles(ctx context.Context, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilyOpportunityRoles, "", filterType, values, fields)
}

// GetSalesPersons looks up sales persons by filter.
func (c *Client) GetSalesPersons(ctx context.Context, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilySalesPersons, "", filterType, values, fields)
}

// GetNamedAccounts looks up named accounts by filter.
func (c *Client) GetNamedAccounts(ctx context.Context, filterType string, values []string, fields []string) (*Result, error) {
	return c.Lookup(ctx, FamilyNamedAccounts, "", filterType, values, fields)
}
