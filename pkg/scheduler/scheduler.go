// Package scheduler runs the service's periodic maintenance jobs on cron
// expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"
)

type Job interface{ Run(ctx context.Context) error }

type FuncJob func(ctx context.Context) error

func (f FuncJob) Run(ctx context.Context) error { return f(ctx) }

// Every renders d as a cron "@every" expression.
func Every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
