package docstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryDoc struct {
	data    map[string]any
	created time.Time
	updated time.Time
}

// MemoryStore keeps documents in process memory. It backs tests and the
// STORE_BACKEND=memory development mode.
type MemoryStore struct {
	mu    sync.Mutex
	now   func() time.Time
	colls map[string]map[string]*memoryDoc
	// failWith, when set, is returned by every operation.
	failWith error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:   time.Now,
		colls: make(map[string]map[string]*memoryDoc),
	}
}

// SetClock overrides the clock used for server timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailWith makes every subsequent call return err; nil restores normal
// operation.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemoryStore) snapshot(ref Ref, d *memoryDoc) *Snapshot {
	if d == nil {
		return &Snapshot{Ref: ref}
	}
	return &Snapshot{
		Ref:        ref,
		Data:       copyObject(d.data),
		CreateTime: d.created,
		UpdateTime: d.updated,
		exists:     true,
	}
}

func (m *MemoryStore) lookupDoc(ref Ref) *memoryDoc {
	if coll, ok := m.colls[ref.Collection]; ok {
		return coll[ref.ID]
	}
	return nil
}

func (m *MemoryStore) put(ref Ref, d *memoryDoc) {
	coll, ok := m.colls[ref.Collection]
	if !ok {
		coll = make(map[string]*memoryDoc)
		m.colls[ref.Collection] = coll
	}
	coll[ref.ID] = d
}

func (m *MemoryStore) Get(ctx context.Context, ref Ref) (*Snapshot, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	d := m.lookupDoc(ref)
	if d == nil {
		return nil, ErrNotFound
	}
	return m.snapshot(ref, d), nil
}

func (m *MemoryStore) Set(ctx context.Context, ref Ref, data any, merge bool) error {
	if err := ref.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}

	now := m.now()
	obj, err := normalizeObject(data, now)
	if err != nil {
		return err
	}

	d := m.lookupDoc(ref)
	if d == nil {
		m.put(ref, &memoryDoc{data: obj, created: now, updated: now})
		return nil
	}
	if merge {
		merged := copyObject(d.data)
		mergeObjects(merged, obj)
		obj = merged
	}
	d.data = obj
	d.updated = now
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, ref Ref, updates []Update) error {
	return m.mutate(ref, false, func(*Snapshot) ([]Update, error) { return updates, nil })
}

func (m *MemoryStore) Upsert(ctx context.Context, ref Ref, updates []Update) error {
	return m.mutate(ref, true, func(*Snapshot) ([]Update, error) { return updates, nil })
}

func (m *MemoryStore) RunTransaction(ctx context.Context, ref Ref, fn TxFunc) error {
	return m.mutate(ref, true, fn)
}

func (m *MemoryStore) mutate(ref Ref, create bool, fn TxFunc) error {
	if err := ref.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}

	d := m.lookupDoc(ref)
	if d == nil && !create {
		return ErrNotFound
	}

	updates, err := fn(m.snapshot(ref, d))
	if err != nil {
		return err
	}

	now := m.now()
	var data map[string]any
	if d != nil {
		data = copyObject(d.data)
	} else {
		data = map[string]any{}
	}
	if err := applyUpdates(data, updates, now); err != nil {
		return err
	}

	if d == nil {
		m.put(ref, &memoryDoc{data: data, created: now, updated: now})
		return nil
	}
	d.data = data
	d.updated = now
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ref Ref) error {
	if err := ref.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if coll, ok := m.colls[ref.Collection]; ok {
		delete(coll, ref.ID)
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	values := make([]any, len(q.Filters))
	for i, f := range q.Filters {
		v, err := filterValue(f.Value)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	var out []*Snapshot
	for id, d := range m.colls[q.Collection] {
		ok := true
		for i, f := range q.Filters {
			if !matches(d.data, f, values[i]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if q.OrderPath != "" {
			parts, _ := splitPath(q.OrderPath)
			if _, has := lookup(d.data, parts); !has {
				continue
			}
		}
		out = append(out, m.snapshot(Doc(q.Collection, id), d))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderPath != "" {
			a, _ := out[i].Field(q.OrderPath)
			b, _ := out[j].Field(q.OrderPath)
			if c, ok := compareValues(a, b); ok && c != 0 {
				if q.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].Ref.ID < out[j].Ref.ID
	})

	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out, nil
}
