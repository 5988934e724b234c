package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contentgraph/contentgraph/internal/model"
)

// Memory is an in-process adapter used by tests and the dev server. Records
// live in per-identity tables ordered by insertion.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]*record
}

type record struct {
	values    map[string]interface{}
	createdAt time.Time
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]*record)}
}

// GetCollectionIdentity stores collections under their capitalized identity.
func (m *Memory) GetCollectionIdentity(collection *model.Collection) string {
	return collection.Identity()
}

func (m *Memory) Fetch(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) (map[string]interface{}, error) {
	matches, err := m.FetchAll(ctx, identity, collection, criteria)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (m *Memory) FetchAll(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectRecords(identity, criteria, false)
}

// FetchLatest returns matches in reverse insertion order.
func (m *Memory) FetchLatest(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectRecords(identity, criteria, true)
}

// FetchFirst returns matches in insertion order.
func (m *Memory) FetchFirst(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectRecords(identity, criteria, false)
}

func (m *Memory) Count(ctx context.Context, identity string, collection *model.Collection) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[identity]), nil
}

func (m *Memory) Create(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		stored[k] = v
	}
	pk := collection.PrimaryKey
	if _, ok := stored[pk]; !ok {
		stored[pk] = uuid.NewString()
	}

	m.tables[identity] = append(m.tables[identity], &record{
		values:    stored,
		createdAt: time.Now(),
	})
	return copyValues(stored), nil
}

func (m *Memory) Update(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := collection.PrimaryKey
	id, ok := values[pk]
	if !ok {
		return nil, fmt.Errorf("update requires the primary key %q", pk)
	}

	for _, rec := range m.tables[identity] {
		if valueEquals(rec.values[pk], id) {
			for k, v := range values {
				rec.values[k] = v
			}
			return copyValues(rec.values), nil
		}
	}
	return nil, fmt.Errorf("no %s record with %s = %v", identity, pk, id)
}

func (m *Memory) Delete(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := collection.PrimaryKey
	id, ok := values[pk]
	if !ok {
		return nil, fmt.Errorf("delete requires the primary key %q", pk)
	}

	table := m.tables[identity]
	for i, rec := range table {
		if valueEquals(rec.values[pk], id) {
			m.tables[identity] = append(table[:i], table[i+1:]...)
			return copyValues(rec.values), nil
		}
	}
	return nil, fmt.Errorf("no %s record with %s = %v", identity, pk, id)
}

// selectRecords applies criteria over a table snapshot. Callers hold the
// lock.
func (m *Memory) selectRecords(identity string, criteria Criteria, reverse bool) ([]map[string]interface{}, error) {
	table := m.tables[identity]

	matches := make([]map[string]interface{}, 0, len(table))
	for _, rec := range table {
		if !rec.matches(criteria) {
			continue
		}
		matches = append(matches, copyValues(rec.values))
	}

	if reverse {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}
	if criteria.Sort != "" {
		sortRecords(matches, criteria.Sort)
	}
	if criteria.Skip > 0 {
		if criteria.Skip >= len(matches) {
			matches = nil
		} else {
			matches = matches[criteria.Skip:]
		}
	}
	if criteria.Limit > 0 && criteria.Limit < len(matches) {
		matches = matches[:criteria.Limit]
	}
	return matches, nil
}

func (r *record) matches(criteria Criteria) bool {
	for field, want := range criteria.Where {
		if !valueEquals(r.values[field], want) {
			return false
		}
	}
	if criteria.Start != "" {
		if start, err := time.Parse(time.RFC3339, criteria.Start); err == nil && r.createdAt.Before(start) {
			return false
		}
	}
	if criteria.End != "" {
		if end, err := time.Parse(time.RFC3339, criteria.End); err == nil && r.createdAt.After(end) {
			return false
		}
	}
	return true
}

// sortRecords orders by a "field" or "field:desc" directive.
func sortRecords(records []map[string]interface{}, directive string) {
	field := directive
	descending := false
	if i := strings.IndexByte(directive, ':'); i >= 0 {
		field = directive[:i]
		descending = strings.EqualFold(directive[i+1:], "desc")
	}

	sort.SliceStable(records, func(i, j int) bool {
		less := fmt.Sprint(records[i][field]) < fmt.Sprint(records[j][field])
		if descending {
			return !less
		}
		return less
	})
}

func valueEquals(a, b interface{}) bool {
	if a == b {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func copyValues(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
