package marketo

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultMaxConcurrency = 10

// Call is one operation to run as part of ExecuteAll.
type Call struct {
	Operation string
	Args      Args
	Options   []CallOption
}

// CallResult pairs a Call with its outcome. Err is set exactly as Execute
// would set it, so an unsuccessful envelope carries both.
type CallResult struct {
	Call   Call
	Result *Result
	Err    error
}

// ExecuteAll runs independent calls concurrently, at most maxConcurrency
// at a time (zero means 10). Results are returned in the order of calls.
// Each call is a separate Execute; nothing is merged or retried.
func (c *Client) ExecuteAll(ctx context.Context, calls []Call, maxConcurrency int) []CallResult {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	results := make([]CallResult, len(calls))
	p := pool.New().WithMaxGoroutines(maxConcurrency)
	for idx, call := range calls {
		i := idx
		call := call
		p.Go(func() {
			res, err := c.Execute(ctx, call.Operation, call.Args, call.Options...)
			results[i] = CallResult{Call: call, Result: res, Err: err}
		})
	}
	p.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.logger.Info("Completed concurrent calls",
		zap.Int("total", len(calls)),
		zap.Int("failed", failed))
	return results
}
