package mqtt

import (
	"context"
	"sync"

	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
	"github.com/kilianp07/energyplan/core/report"
)

var _ coremqtt.Publisher = (*MockPublisher)(nil)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Reports []report.Report
	Err     error
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishPlan records the report or returns Err when set.
func (m *MockPublisher) PublishPlan(_ context.Context, rep report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Reports = append(m.Reports, rep)
	return nil
}

// Published returns a copy of the recorded reports.
func (m *MockPublisher) Published() []report.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]report.Report(nil), m.Reports...)
}
