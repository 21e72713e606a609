package app

import (
	"context"
	"time"

	"github.com/hylla/skadi/internal/domain"
)

// Store is the durable source of truth for lists, statuses and job items.
// Implementations assign ids and created_at on insert and return ErrNotFound for missing rows.
// UpsertRanks writes every change in one bulk call keyed by id and skips changes whose card no
// longer matches (see domain.RankChange).
type Store interface {
	ListJobLists(context.Context) ([]domain.JobList, error)
	GetJobList(context.Context, string) (domain.JobList, error)
	InsertJobList(context.Context, string) (domain.JobList, error)
	DeleteJobList(context.Context, string) error

	ListStatuses(context.Context, string) ([]domain.JobStatus, error)
	InsertStatus(context.Context, string, string, int) (domain.JobStatus, error)

	ListItems(context.Context, string) ([]domain.JobItem, error)
	GetItem(context.Context, string) (domain.JobItem, error)
	InsertItem(context.Context, domain.JobItemInput) (domain.JobItem, error)
	UpdateItem(context.Context, string, domain.JobItemPatch) error
	UpsertRanks(context.Context, []domain.RankChange) error
	DeleteItem(context.Context, string) error
}

// User is the signed-in account.
type User struct {
	ID          string
	DisplayName string
}

// Identity is the opaque auth collaborator.
type Identity interface {
	Signup(context.Context, string) (User, error)
	Login(context.Context, string) (User, error)
	Logout(context.Context) error
	CurrentUser(context.Context) (User, error)
}

// Logger receives structured diagnostics. *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// Metrics counts board mutations.
type Metrics interface {
	MoveCommitted(statusID string)
	MoveRolledBack(statusID string)
	RebalanceFinished(statusID string, items int, err error)
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Deps carries every collaborator the board, rebalancer and service need.
type Deps struct {
	Store    Store
	Identity Identity
	Logger   Logger
	Metrics  Metrics
	Clock    Clock
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = nopLogger{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// requireUser returns ErrUnauthenticated when an identity provider is configured and nobody is signed in.
func (d Deps) requireUser(ctx context.Context) error {
	if d.Identity == nil {
		return nil
	}
	if _, err := d.Identity.CurrentUser(ctx); err != nil {
		return err
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(any, ...any) {}
func (nopLogger) Info(any, ...any)  {}
func (nopLogger) Warn(any, ...any)  {}
func (nopLogger) Error(any, ...any) {}

type nopMetrics struct{}

func (nopMetrics) MoveCommitted(string)                 {}
func (nopMetrics) MoveRolledBack(string)                {}
func (nopMetrics) RebalanceFinished(string, int, error) {}
