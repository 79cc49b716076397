package ports

import (
	"context"

	"hybridtest/domain/hypotest"
)

// ReportSink writes finished test results to an external document
type ReportSink interface {
	WriteResult(ctx context.Context, result *hypotest.HypothesisTestResult) error
}
