package marketo

import (
	"context"
	"fmt"
)

// GetEmail retrieves an email asset by id.
func (c *Client) GetEmail(ctx context.Context, id int) (*Email, error) {
	res, err := c.Execute(ctx, OpGetEmail, Args{"id": id})
	if err != nil {
		return nil, err
	}
	var emails []Email
	if err := res.Decode(&emails); err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("email %d not found", id)
	}
	return &emails[0], nil
}

// GetEmails browses email assets. maxReturn of zero uses the API default.
func (c *Client) GetEmails(ctx context.Context, offset, maxReturn int, status string) (*Result, error) {
	args := Args{}
	withOptional(args, "offset", offset)
	withOptional(args, "maxReturn", maxReturn)
	withOptional(args, "status", status)
	return c.Execute(ctx, OpGetEmails, args)
}

// GetEmailContent returns the editable sections of an email.
func (c *Client) GetEmailContent(ctx context.Context, id int) (*Result, error) {
	return c.Execute(ctx, OpGetEmailContent, Args{"id": id})
}

// ApproveEmail approves the draft of an email.
func (c *Client) ApproveEmail(ctx context.Context, id int) (*Result, error) {
	return c.Execute(ctx, OpApproveEmail, Args{"id": id})
}

// SendSampleEmail sends a sample of an email to emailAddress, optionally
// rendered for leadID.
func (c *Client) SendSampleEmail(ctx context.Context, id int, emailAddress string, leadID int, textOnly bool) (*Result, error) {
	args := Args{"id": id, "emailAddress": emailAddress}
	withOptional(args, "leadId", leadID)
	if textOnly {
		args["textOnly"] = true
	}
	return c.Execute(ctx, OpSendSampleEmail, args)
}

// GetEmailTemplates browses email templates.
func (c *Client) GetEmailTemplates(ctx context.Context, offset, maxReturn int) (*Result, error) {
	args := Args{}
	withOptional(args, "offset", offset)
	withOptional(args, "maxReturn", maxReturn)
	return c.Execute(ctx, OpGetEmailTemplates, args)
}
