package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hylla/skadi/internal/domain"
)

type updateCall struct {
	id    string
	patch domain.JobItemPatch
}

type fakeStore struct {
	mu       sync.Mutex
	seq      int
	lists    map[string]domain.JobList
	statuses map[string]domain.JobStatus
	items    map[string]domain.JobItem

	insertErr error
	updateErr error
	upsertErr error
	deleteErr error

	inserts   int
	updates   []updateCall
	upserts   [][]domain.RankChange
	deletes   []string
	listItems int

	beforeListItems func(listID string)
	beforeUpsert    func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:    map[string]domain.JobList{},
		statuses: map[string]domain.JobStatus{},
		items:    map[string]domain.JobItem{},
	}
}

var fakeNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

// seed adds a list with the given status ids and returns it.
func (f *fakeStore) seed(listID string, statusIDs ...string) domain.JobList {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := domain.JobList{ID: listID, Title: "List " + listID, CreatedAt: fakeNow}
	f.lists[listID] = list
	for idx, id := range statusIDs {
		f.statuses[id] = domain.JobStatus{ID: id, ListID: listID, Title: id, Order: idx, CreatedAt: fakeNow}
	}
	return list
}

func (f *fakeStore) seedItem(listID, statusID, id string, order float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = domain.JobItem{
		ID:        id,
		ListID:    listID,
		StatusID:  statusID,
		Title:     "Role " + id,
		Company:   "Acme",
		SortOrder: order,
		CreatedAt: fakeNow,
	}
}

func (f *fakeStore) stored(id string) domain.JobItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id]
}

func (f *fakeStore) ListJobLists(context.Context) ([]domain.JobList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.JobList, 0, len(f.lists))
	for _, list := range f.lists {
		out = append(out, list)
	}
	return out, nil
}

func (f *fakeStore) GetJobList(_ context.Context, id string) (domain.JobList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.lists[id]
	if !ok {
		return domain.JobList{}, ErrNotFound
	}
	return list, nil
}

func (f *fakeStore) InsertJobList(_ context.Context, title string) (domain.JobList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return domain.JobList{}, f.insertErr
	}
	list, err := domain.NewJobList(f.nextID("l"), title, fakeNow)
	if err != nil {
		return domain.JobList{}, err
	}
	f.lists[list.ID] = list
	return list, nil
}

func (f *fakeStore) DeleteJobList(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lists[id]; !ok {
		return ErrNotFound
	}
	delete(f.lists, id)
	for sid, status := range f.statuses {
		if status.ListID == id {
			delete(f.statuses, sid)
		}
	}
	for iid, item := range f.items {
		if item.ListID == id {
			delete(f.items, iid)
		}
	}
	return nil
}

func (f *fakeStore) ListStatuses(_ context.Context, listID string) ([]domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.JobStatus{}
	for _, status := range f.statuses {
		if status.ListID == listID {
			out = append(out, status)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertStatus(_ context.Context, listID, title string, order int) (domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, err := domain.NewJobStatus(f.nextID("s"), listID, title, order, fakeNow)
	if err != nil {
		return domain.JobStatus{}, err
	}
	f.statuses[status.ID] = status
	return status, nil
}

func (f *fakeStore) ListItems(_ context.Context, listID string) ([]domain.JobItem, error) {
	if f.beforeListItems != nil {
		f.beforeListItems(listID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listItems++
	out := []domain.JobItem{}
	for _, item := range f.items {
		if item.ListID == listID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) GetItem(_ context.Context, id string) (domain.JobItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return domain.JobItem{}, ErrNotFound
	}
	return item, nil
}

func (f *fakeStore) InsertItem(_ context.Context, in domain.JobItemInput) (domain.JobItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return domain.JobItem{}, f.insertErr
	}
	item, err := domain.NewJobItem(f.nextID("i"), in, fakeNow)
	if err != nil {
		return domain.JobItem{}, err
	}
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeStore) UpdateItem(_ context.Context, id string, patch domain.JobItemPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, patch: patch})
	if f.updateErr != nil {
		return f.updateErr
	}
	item, ok := f.items[id]
	if !ok {
		return ErrNotFound
	}
	if err := item.Apply(patch); err != nil {
		return err
	}
	f.items[id] = item
	return nil
}

func (f *fakeStore) UpsertRanks(_ context.Context, changes []domain.RankChange) error {
	if f.beforeUpsert != nil {
		f.beforeUpsert()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, append([]domain.RankChange(nil), changes...))
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, c := range changes {
		item, ok := f.items[c.ID]
		if !ok || !c.Matches(item) {
			continue
		}
		item.SortOrder = c.To
		f.items[c.ID] = item
	}
	return nil
}

func (f *fakeStore) DeleteItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeMetrics struct {
	mu         sync.Mutex
	committed  int
	rolledBack int
	rebalances []error
}

func (m *fakeMetrics) MoveCommitted(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed++
}

func (m *fakeMetrics) MoveRolledBack(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolledBack++
}

func (m *fakeMetrics) RebalanceFinished(_ string, _ int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebalances = append(m.rebalances, err)
}

func columnIDs(items []domain.JobItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
