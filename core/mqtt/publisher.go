package mqtt

import (
	"context"

	"github.com/kilianp07/energyplan/core/report"
)

// Publisher broadcasts a finished plan to downstream consumers.
type Publisher interface {
	// PublishPlan sends the summary of rep and, for optimal plans, one
	// document per scenario.
	PublishPlan(ctx context.Context, rep report.Report) error
}

// NopPublisher discards every plan. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPlan(context.Context, report.Report) error { return nil }
