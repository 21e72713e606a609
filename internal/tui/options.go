package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
)

type Option func(*Model)

// WithContext sets the context store calls run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithDefaultStatuses sets the columns new lists start with.
func WithDefaultStatuses(statuses []string) Option {
	return func(m *Model) {
		m.defaultStatuses = append([]string(nil), statuses...)
	}
}

// WithRebalanceDelay sets how long a column waits after a drop before it is respaced.
func WithRebalanceDelay(delay time.Duration) Option {
	return func(m *Model) {
		if delay >= 0 {
			m.rebalanceDelay = delay
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyToClipboard = write
		}
	}
}

// WithInitialList selects a list on startup instead of the oldest one.
func WithInitialList(listID string) Option {
	return func(m *Model) {
		m.pendingListID = listID
	}
}

func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
