// Package notify posts run summaries to chat webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
)

// NotifyOn selects the runs that produce a notification.
type NotifyOn string

const (
	NotifyAlways  NotifyOn = "always"
	NotifyFailure NotifyOn = "failure"
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery notifies on failure and on the first passing run after one.
	NotifyRecovery NotifyOn = "recovery"
)

// maxFailures caps the failures listed in one message.
const maxFailures = 10

type RunSummary struct {
	TotalFiles   int           `json:"totalFiles"`
	TotalTests   int           `json:"totalTests"`
	PassedTests  int           `json:"passedTests"`
	FailedTests  int           `json:"failedTests"`
	ErroredTests int           `json:"erroredTests"`
	SkippedTests int           `json:"skippedTests"`
	BrokenFiles  int           `json:"brokenFiles"`
	Duration     time.Duration `json:"duration"`
	Environment  string        `json:"environment,omitempty"`
	Failures     []Failure     `json:"failures,omitempty"`
	// Omitted counts failures beyond the listed ones.
	Omitted    int  `json:"omitted,omitempty"`
	IsRecovery bool `json:"isRecovery,omitempty"`
}

type Failure struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Message string `json:"message,omitempty"`
}

// Success reports whether every file loaded and no test failed or errored.
func (s *RunSummary) Success() bool {
	return s.FailedTests == 0 && s.ErroredTests == 0 && s.BrokenFiles == 0
}

// Problems is the number of failed and errored tests plus broken files.
func (s *RunSummary) Problems() int {
	return s.FailedTests + s.ErroredTests + s.BrokenFiles
}

// Summarize builds the summary of one run.
func Summarize(results []*runner.RunResult, duration time.Duration, environment string) *RunSummary {
	s := &RunSummary{
		TotalFiles:  len(results),
		Duration:    duration,
		Environment: environment,
	}

	addFailure := func(f Failure) {
		if len(s.Failures) < maxFailures {
			s.Failures = append(s.Failures, f)
		} else {
			s.Omitted++
		}
	}

	for _, res := range results {
		if res.Err != nil {
			s.BrokenFiles++
			addFailure(Failure{File: res.File, Message: res.Err.Error()})
			continue
		}
		s.TotalTests += res.Total()
		s.PassedTests += res.Passed
		s.FailedTests += res.Failed
		s.ErroredTests += res.Errored
		s.SkippedTests += res.Skipped

		for _, tr := range res.Results {
			if tr.Status == runner.StatusFailed || tr.Status == runner.StatusErrored {
				addFailure(Failure{Name: tr.Name, File: res.File, Message: tr.Message()})
			}
		}
	}
	return s
}

type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary) error
	Name() string
}

// Manager applies a NotifyOn policy across consecutive runs.
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool
}

func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true,
	}
}

func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Len returns the number of registered notifiers.
func (m *Manager) Len() int {
	return len(m.notifiers)
}

// Notify sends summary to every notifier when the policy allows it.
// Every notifier is tried; their errors are joined.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) error {
	success := summary.Success()

	var send bool
	switch m.notifyOn {
	case NotifyAlways:
		send = true
	case NotifyFailure:
		send = !success
	case NotifySuccess:
		send = success
	case NotifyRecovery:
		if !m.lastState && success {
			send = true
			summary.IsRecovery = true
		}
		if !success {
			send = true
		}
	}
	m.lastState = success

	if !send {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func headline(summary *RunSummary) string {
	switch {
	case !summary.Success():
		return fmt.Sprintf("%d problem(s) in %d test file(s)", summary.Problems(), summary.TotalFiles)
	case summary.IsRecovery:
		return "Tests recovered"
	default:
		return "All tests passed"
	}
}

func (f Failure) label() string {
	if f.Name == "" {
		return f.File
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.File)
}
