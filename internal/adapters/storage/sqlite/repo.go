package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/skadi/internal/app"
	"github.com/hylla/skadi/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository is the durable app.Store.
type Repository struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

// Open opens (and migrates) the database at path, creating its directory.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	dsn := fmt.Sprintf("file:skadi-%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{
		db:    db,
		newID: uuid.NewString,
		now:   time.Now,
	}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS job_lists (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS job_statuses (
			id TEXT PRIMARY KEY,
			job_list_id TEXT NOT NULL,
			title TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(job_list_id) REFERENCES job_lists(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS job_items (
			id TEXT PRIMARY KEY,
			job_list_id TEXT NOT NULL,
			status_id TEXT NOT NULL,
			title TEXT NOT NULL,
			company TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			sort_order REAL NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(job_list_id) REFERENCES job_lists(id) ON DELETE CASCADE,
			FOREIGN KEY(status_id) REFERENCES job_statuses(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_job_statuses_list_position ON job_statuses(job_list_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_job_items_list_status_order ON job_items(job_list_id, status_id, sort_order);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListJobLists returns every list, oldest first.
func (r *Repository) ListJobLists(ctx context.Context) ([]domain.JobList, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, created_at
		FROM job_lists
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobList, 0)
	for rows.Next() {
		list, err := scanJobList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, list)
	}
	return out, rows.Err()
}

// GetJobList returns one list.
func (r *Repository) GetJobList(ctx context.Context, id string) (domain.JobList, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, title, created_at FROM job_lists WHERE id = ?`, id)
	return scanJobList(row)
}

// InsertJobList creates a list and assigns its id and created_at.
func (r *Repository) InsertJobList(ctx context.Context, title string) (domain.JobList, error) {
	list, err := domain.NewJobList(r.newID(), title, r.now())
	if err != nil {
		return domain.JobList{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO job_lists(id, title, created_at)
		VALUES (?, ?, ?)
	`, list.ID, list.Title, ts(list.CreatedAt))
	if err != nil {
		return domain.JobList{}, err
	}
	return list, nil
}

// DeleteJobList removes a list with its statuses and items.
func (r *Repository) DeleteJobList(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM job_items WHERE job_list_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM job_statuses WHERE job_list_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM job_lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ListStatuses returns the columns of a list left to right.
func (r *Repository) ListStatuses(ctx context.Context, listID string) ([]domain.JobStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_list_id, title, position, created_at
		FROM job_statuses
		WHERE job_list_id = ?
		ORDER BY position ASC, id ASC
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobStatus, 0)
	for rows.Next() {
		var (
			status     domain.JobStatus
			createdRaw string
		)
		if err := rows.Scan(&status.ID, &status.ListID, &status.Title, &status.Order, &createdRaw); err != nil {
			return nil, err
		}
		status.CreatedAt = parseTS(createdRaw)
		out = append(out, status)
	}
	return out, rows.Err()
}

// InsertStatus creates a column at position order.
func (r *Repository) InsertStatus(ctx context.Context, listID, title string, order int) (domain.JobStatus, error) {
	status, err := domain.NewJobStatus(r.newID(), listID, title, order, r.now())
	if err != nil {
		return domain.JobStatus{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO job_statuses(id, job_list_id, title, position, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, status.ID, status.ListID, status.Title, status.Order, ts(status.CreatedAt))
	if err != nil {
		return domain.JobStatus{}, err
	}
	return status, nil
}

const itemColumns = `id, job_list_id, status_id, title, company, location, link, notes, sort_order, created_at`

// ListItems returns the cards of a list ordered by rank.
func (r *Repository) ListItems(ctx context.Context, listID string) ([]domain.JobItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM job_items
		WHERE job_list_id = ?
		ORDER BY sort_order ASC, created_at ASC, id ASC
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobItem, 0)
	for rows.Next() {
		item, err := scanJobItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetItem returns one card.
func (r *Repository) GetItem(ctx context.Context, id string) (domain.JobItem, error) {
	return getItemByID(ctx, r.db, id)
}

// InsertItem creates a card and assigns its id and created_at.
func (r *Repository) InsertItem(ctx context.Context, in domain.JobItemInput) (domain.JobItem, error) {
	item, err := domain.NewJobItem(r.newID(), in, r.now())
	if err != nil {
		return domain.JobItem{}, err
	}
	if err := insertItem(ctx, r.db, item); err != nil {
		return domain.JobItem{}, err
	}
	return item, nil
}

// UpdateItem applies patch to one card. Status and rank from the same patch land in one write.
func (r *Repository) UpdateItem(ctx context.Context, id string, patch domain.JobItemPatch) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	item, err := getItemByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err = item.Apply(patch); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE job_items
		SET status_id = ?, title = ?, company = ?, location = ?, link = ?, notes = ?, sort_order = ?
		WHERE id = ?
	`, item.StatusID, item.Title, item.Company, item.Location, item.Link, item.Notes, item.SortOrder, item.ID)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// UpsertRanks writes every rank change in one transaction, keyed by id. A change applies only
// while its card is still in the expected column at the expected rank; other changes are skipped.
func (r *Repository) UpsertRanks(ctx context.Context, changes []domain.RankChange) (err error) {
	if len(changes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range changes {
		if _, err = tx.ExecContext(ctx, `
			UPDATE job_items
			SET sort_order = ?
			WHERE id = ? AND status_id = ? AND sort_order = ?
		`, c.To, c.ID, c.StatusID, c.From); err != nil {
			return fmt.Errorf("update rank of job item %s: %w", c.ID, err)
		}
	}
	err = tx.Commit()
	return err
}

// DeleteItem removes one card.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// execerContext is the shared Exec surface of *sql.DB and *sql.Tx.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// queryRower is the shared QueryRow surface of *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func insertItem(ctx context.Context, execer execerContext, item domain.JobItem) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO job_items(`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.ListID,
		item.StatusID,
		item.Title,
		item.Company,
		item.Location,
		item.Link,
		item.Notes,
		item.SortOrder,
		ts(item.CreatedAt),
	)
	return err
}

func getItemByID(ctx context.Context, q queryRower, id string) (domain.JobItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM job_items WHERE id = ?`, id)
	return scanJobItem(row)
}

func scanJobList(s scanner) (domain.JobList, error) {
	var (
		list       domain.JobList
		createdRaw string
	)
	if err := s.Scan(&list.ID, &list.Title, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobList{}, app.ErrNotFound
		}
		return domain.JobList{}, err
	}
	list.CreatedAt = parseTS(createdRaw)
	return list, nil
}

func scanJobItem(s scanner) (domain.JobItem, error) {
	var (
		item       domain.JobItem
		createdRaw string
	)
	if err := s.Scan(
		&item.ID,
		&item.ListID,
		&item.StatusID,
		&item.Title,
		&item.Company,
		&item.Location,
		&item.Link,
		&item.Notes,
		&item.SortOrder,
		&createdRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobItem{}, app.ErrNotFound
		}
		return domain.JobItem{}, err
	}
	item.CreatedAt = parseTS(createdRaw)
	return item, nil
}

// translateNoRows maps a zero-row write to app.ErrNotFound.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
