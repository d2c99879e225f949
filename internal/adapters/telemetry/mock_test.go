package telemetry_test

import (
	"context"
	"sync"
	"time"
)

// mockRenderer is a simple test double for ports.Renderer.
type mockRenderer struct {
	mu            sync.Mutex
	planCalls     int
	startCalls    int
	logCalls      int
	completeCalls int
	logIDs        []string
	logs          [][]byte
	events        []string
}

func (m *mockRenderer) Start(_ context.Context) error { return nil }
func (m *mockRenderer) Stop() error                   { return nil }
func (m *mockRenderer) Wait() error                   { return nil }

func (m *mockRenderer) OnPlanEmit(_ []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planCalls++
}

func (m *mockRenderer) OnStepStart(_, _, name string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	m.events = append(m.events, "start "+name)
}

func (m *mockRenderer) OnStepLog(spanID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logCalls++
	m.logIDs = append(m.logIDs, spanID)
	m.logs = append(m.logs, data)
	m.events = append(m.events, "log "+string(data))
}

func (m *mockRenderer) OnStepComplete(_ string, _ time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	if err != nil {
		m.events = append(m.events, "fail "+err.Error())
	} else {
		m.events = append(m.events, "done")
	}
}

func (m *mockRenderer) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}
