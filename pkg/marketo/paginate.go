package marketo

import (
	"context"
	"errors"
)

// ErrStopPaging may be returned from a Paginate callback to end the loop
// without an error.
var ErrStopPaging = errors.New("stop paging")

// Paginate runs name repeatedly, passing each page's nextPageToken into the
// next call, until the API reports no more results or fn stops the loop.
// args is not modified.
func (c *Client) Paginate(ctx context.Context, name string, args Args, fn func(*Result) error, opts ...CallOption) error {
	page := make(Args, len(args)+1)
	for k, v := range args {
		page[k] = v
	}

	for {
		res, err := c.Execute(ctx, name, page, opts...)
		if err != nil {
			return err
		}
		if err := fn(res); err != nil {
			if errors.Is(err, ErrStopPaging) {
				return nil
			}
			return err
		}
		if !res.HasMore() {
			return nil
		}
		if tok, ok := page["nextPageToken"].(string); ok && tok == res.NextPageToken {
			// Activity feeds return the same token once caught up.
			return nil
		}
		page["nextPageToken"] = res.NextPageToken

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
