package businessflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirphl/civic-portal/models"
	"github.com/amirphl/civic-portal/repository"
	"github.com/amirphl/civic-portal/utils"
)

var errInjected = errors.New("injected failure")

type counterKey struct {
	jurisdictionID uint
	recordType     string
}

// memoryCounterStore is an in-memory CounterStore with failure injection
type memoryCounterStore struct {
	mu         sync.Mutex
	counters   map[counterKey]int64
	failNext   int
	increments int
}

var _ repository.CounterStore = (*memoryCounterStore)(nil)

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{counters: make(map[counterKey]int64)}
}

func (s *memoryCounterStore) IncrementAndGet(ctx context.Context, jurisdictionID uint, recordType string, max int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return 0, errInjected
	}
	key := counterKey{jurisdictionID, recordType}
	if s.counters[key] >= max {
		return 0, repository.ErrSequenceExhausted
	}
	s.counters[key]++
	s.increments++
	return s.counters[key], nil
}

func (s *memoryCounterStore) Current(ctx context.Context, jurisdictionID uint, recordType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counterKey{jurisdictionID, recordType}], nil
}

func (s *memoryCounterStore) All(ctx context.Context) ([]*models.SequenceCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.SequenceCounter, 0, len(s.counters))
	for k, v := range s.counters {
		out = append(out, &models.SequenceCounter{JurisdictionID: k.jurisdictionID, RecordType: k.recordType, LastIssued: v, UpdatedAt: time.Unix(0, 0)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JurisdictionID != out[j].JurisdictionID {
			return out[i].JurisdictionID < out[j].JurisdictionID
		}
		return out[i].RecordType < out[j].RecordType
	})
	return out, nil
}

func (s *memoryCounterStore) RaiseTo(ctx context.Context, jurisdictionID uint, recordType string, value int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey{jurisdictionID, recordType}
	if s.counters[key] >= value {
		return false, nil
	}
	s.counters[key] = value
	return true, nil
}

func (s *memoryCounterStore) set(jurisdictionID uint, recordType string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[counterKey{jurisdictionID, recordType}] = value
}

func (s *memoryCounterStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

func (s *memoryCounterStore) snapshot() map[counterKey]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[counterKey]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

func (s *memoryCounterStore) restore(snap map[counterKey]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = snap
}

type fakeTxKey struct{}

var errCommitReset = errors.New("failed to commit transaction: conn reset")

// fakeTransactor serializes transactions and restores the counter store and
// project list when fn fails, imitating a database rollback
type fakeTransactor struct {
	mu        sync.Mutex
	store     *memoryCounterStore
	projects  *fakeProjectRepo
	history   *fakeAllocationHistory
	commitErr error
	// failCommits fails that many otherwise successful commits with errCommitReset
	failCommits int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var counters map[counterKey]int64
	if t.store != nil {
		counters = t.store.snapshot()
	}
	var projects int
	if t.projects != nil {
		projects = t.projects.len()
	}
	var history int
	if t.history != nil {
		history = t.history.len()
	}

	err := fn(context.WithValue(ctx, fakeTxKey{}, true))
	if err == nil && t.commitErr != nil {
		err = t.commitErr
	}
	if err == nil && t.failCommits > 0 {
		t.failCommits--
		err = errCommitReset
	}
	if err != nil {
		if t.store != nil {
			t.store.restore(counters)
		}
		if t.projects != nil {
			t.projects.truncate(projects)
		}
		if t.history != nil {
			t.history.truncate(history)
		}
		return err
	}
	return nil
}

type fakeJurisdictionRepo struct {
	mu      sync.Mutex
	items   []*models.Jurisdiction
	nextID  uint
	failGet error
}

var _ repository.JurisdictionRepository = (*fakeJurisdictionRepo)(nil)

func newFakeJurisdictionRepo(identifiers ...string) *fakeJurisdictionRepo {
	r := &fakeJurisdictionRepo{}
	for _, id := range identifiers {
		_ = r.Save(context.Background(), &models.Jurisdiction{
			UUID:       uuid.New(),
			Identifier: id,
			Name:       "Council " + id,
			IsActive:   utils.ToPtr(true),
		})
	}
	return r
}

func (r *fakeJurisdictionRepo) byIdentifier(identifier string) *models.Jurisdiction {
	j, _ := r.ByIdentifier(context.Background(), identifier)
	return j
}

func (r *fakeJurisdictionRepo) ByID(ctx context.Context, id uint) (*models.Jurisdiction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	for _, j := range r.items {
		if j.ID == id {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeJurisdictionRepo) matches(j *models.Jurisdiction, f models.JurisdictionFilter) bool {
	if f.ID != nil && j.ID != *f.ID {
		return false
	}
	if f.UUID != nil && j.UUID != *f.UUID {
		return false
	}
	if f.Identifier != nil && j.Identifier != *f.Identifier {
		return false
	}
	if f.IsActive != nil && utils.IsTrue(j.IsActive) != *f.IsActive {
		return false
	}
	return true
}

func (r *fakeJurisdictionRepo) ByFilter(ctx context.Context, filter models.JurisdictionFilter, orderBy string, limit, offset int) ([]*models.Jurisdiction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, r.failGet
	}
	out := []*models.Jurisdiction{}
	for _, j := range r.items {
		if r.matches(j, filter) {
			cp := *j
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		return []*models.Jurisdiction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeJurisdictionRepo) Save(ctx context.Context, entity *models.Jurisdiction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	entity.CreatedAt = time.Now()
	entity.UpdatedAt = entity.CreatedAt
	cp := *entity
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeJurisdictionRepo) SaveBatch(ctx context.Context, entities []*models.Jurisdiction) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeJurisdictionRepo) Count(ctx context.Context, filter models.JurisdictionFilter) (int64, error) {
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(items)), err
}

func (r *fakeJurisdictionRepo) Exists(ctx context.Context, filter models.JurisdictionFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeJurisdictionRepo) ByUUID(ctx context.Context, id string) (*models.Jurisdiction, error) {
	parsed, err := utils.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	items, err := r.ByFilter(ctx, models.JurisdictionFilter{UUID: &parsed}, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *fakeJurisdictionRepo) ByIdentifier(ctx context.Context, identifier string) (*models.Jurisdiction, error) {
	items, err := r.ByFilter(ctx, models.JurisdictionFilter{Identifier: &identifier}, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *fakeJurisdictionRepo) ByIDs(ctx context.Context, ids []uint) ([]*models.Jurisdiction, error) {
	out := []*models.Jurisdiction{}
	for _, id := range ids {
		j, err := r.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if j != nil {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *fakeJurisdictionRepo) Update(ctx context.Context, entity *models.Jurisdiction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.items {
		if j.ID == entity.ID {
			j.Name = entity.Name
			j.IsActive = entity.IsActive
			j.UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.New("jurisdiction not found")
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	items    []*models.Project
	failSave int
}

var _ repository.ProjectRepository = (*fakeProjectRepo)(nil)

func (r *fakeProjectRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *fakeProjectRepo) truncate(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = r.items[:n]
}

func (r *fakeProjectRepo) ByID(ctx context.Context, id uint) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProjectRepo) ByFilter(ctx context.Context, filter models.ProjectFilter, orderBy string, limit, offset int) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Project{}
	for i := len(r.items) - 1; i >= 0; i-- {
		p := r.items[i]
		if filter.JurisdictionID != nil && p.JurisdictionID != *filter.JurisdictionID {
			continue
		}
		if filter.UUID != nil && p.UUID != *filter.UUID {
			continue
		}
		if filter.Code != nil && p.Code != *filter.Code {
			continue
		}
		out = append(out, p)
	}
	if offset > len(out) {
		return []*models.Project{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProjectRepo) Save(ctx context.Context, entity *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave > 0 {
		r.failSave--
		return errInjected
	}
	entity.ID = uint(len(r.items) + 1)
	entity.CreatedAt = time.Now()
	r.items = append(r.items, entity)
	return nil
}

func (r *fakeProjectRepo) SaveBatch(ctx context.Context, entities []*models.Project) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeProjectRepo) Count(ctx context.Context, filter models.ProjectFilter) (int64, error) {
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(items)), err
}

func (r *fakeProjectRepo) Exists(ctx context.Context, filter models.ProjectFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *fakeProjectRepo) ByUUID(ctx context.Context, id string) (*models.Project, error) {
	parsed, err := utils.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	items, err := r.ByFilter(ctx, models.ProjectFilter{UUID: &parsed}, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *fakeProjectRepo) ByCode(ctx context.Context, code string) (*models.Project, error) {
	items, err := r.ByFilter(ctx, models.ProjectFilter{Code: &code}, "", 1, 0)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

type fakeAllocationHistory struct {
	mu       sync.Mutex
	items    []*models.CodeAllocation
	failSave int
}

var _ repository.CodeAllocationRepository = (*fakeAllocationHistory)(nil)

func (h *fakeAllocationHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

func (h *fakeAllocationHistory) truncate(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = h.items[:n]
}

func (h *fakeAllocationHistory) Save(ctx context.Context, entity *models.CodeAllocation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failSave > 0 {
		h.failSave--
		return errInjected
	}
	entity.ID = uint(len(h.items) + 1)
	h.items = append(h.items, entity)
	return nil
}

func (h *fakeAllocationHistory) ByFilter(ctx context.Context, filter models.CodeAllocationFilter, orderBy string, limit, offset int) ([]*models.CodeAllocation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*models.CodeAllocation, len(h.items))
	copy(out, h.items)
	return out, nil
}

func (h *fakeAllocationHistory) Count(ctx context.Context, filter models.CodeAllocationFilter) (int64, error) {
	return int64(h.len()), nil
}

// staticLookup resolves identifiers from a fixed map
type staticLookup map[uint]string

func (l staticLookup) GetIdentifier(ctx context.Context, jurisdictionID uint) (string, error) {
	identifier, ok := l[jurisdictionID]
	if !ok {
		return "", &NotFoundError{JurisdictionID: jurisdictionID}
	}
	return identifier, nil
}

type observedAllocation struct {
	recordType string
	outcome    string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedAllocation
}

func (o *recordingObserver) ObserveAllocation(recordType, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedAllocation{recordType: recordType, outcome: outcome})
}
