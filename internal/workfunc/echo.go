package workfunc

import (
	"context"

	"github.com/teranos/redbike/internal/rblog"
)

// EchoWork is the built-in demonstration job body: it logs the jobid it
// was handed and completes successfully with no backoff, so a freshly
// checked-out repo can run `redbike work` against a populated schedule
// and watch jobs cycle without writing any Go code first.
func EchoWork(ctx context.Context, jobid string) (*int64, error) {
	rblog.WithJob(rblog.Logger, jobid).Infow("echo work ran")
	return nil, nil
}
