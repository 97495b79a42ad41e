package metrics

import (
	"context"
	"time"

	"github.com/andrescamacho/colonysim/internal/application/common"
)

// PrometheusMiddleware records every request passing through the mediator.
// Names come from common.RequestName, so *commands.RunTicksCommand is
// labelled RunTicksCommand.
func PrometheusMiddleware(collector *CommandMetricsCollector) common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		name := common.RequestName(request)
		done := collector.Begin(name)
		defer done()

		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordCommandExecution(name, time.Since(start).Seconds(), err)
		return response, err
	}
}
