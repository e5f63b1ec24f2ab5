package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

type record map[string]any

// MemStore is an embedded Store with the same semantics as the remote one:
// ids are assigned per collection, updates merge top-level fields, filters
// match on the string form of a field.
type MemStore struct {
	mu      sync.Mutex
	records map[Name][]record
	nextID  map[Name]int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[Name][]record),
		nextID:  make(map[Name]int64),
	}
}

func (s *MemStore) List(ctx context.Context, coll Name, filter Filter, out any) error {
	if err := s.check(ctx, "list", coll, 0); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []record{}
	for _, r := range s.records[coll] {
		if matches(r, filter) {
			matched = append(matched, r)
		}
	}
	return decodeInto("list", coll, 0, matched, out)
}

func (s *MemStore) Get(ctx context.Context, coll Name, id int64, out any) error {
	if err := s.check(ctx, "get", coll, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(coll, id)
	if i < 0 {
		return &TransportError{Op: "get", Collection: coll, ID: id, StatusCode: 404, Err: ErrNotFound}
	}
	return decodeInto("get", coll, id, s.records[coll][i], out)
}

func (s *MemStore) Create(ctx context.Context, coll Name, in any, out any) error {
	if err := s.check(ctx, "create", coll, 0); err != nil {
		return err
	}
	r, err := toRecord(in)
	if err != nil {
		return &TransportError{Op: "create", Collection: coll, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID[coll]++
	id := s.nextID[coll]
	r["id"] = float64(id)
	s.records[coll] = append(s.records[coll], r)
	return decodeInto("create", coll, id, r, out)
}

func (s *MemStore) Update(ctx context.Context, coll Name, id int64, patch any, out any) error {
	if err := s.check(ctx, "update", coll, id); err != nil {
		return err
	}
	p, err := toRecord(patch)
	if err != nil {
		return &TransportError{Op: "update", Collection: coll, ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(coll, id)
	if i < 0 {
		return &TransportError{Op: "update", Collection: coll, ID: id, StatusCode: 404, Err: ErrNotFound}
	}
	r := s.records[coll][i]
	for k, v := range p {
		if k == "id" {
			continue
		}
		r[k] = v
	}
	return decodeInto("update", coll, id, r, out)
}

func (s *MemStore) Delete(ctx context.Context, coll Name, id int64) error {
	if err := s.check(ctx, "delete", coll, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(coll, id)
	if i < 0 {
		return &TransportError{Op: "delete", Collection: coll, ID: id, StatusCode: 404, Err: ErrNotFound}
	}
	s.records[coll] = append(s.records[coll][:i], s.records[coll][i+1:]...)
	return nil
}

// Len returns the number of records in a collection.
func (s *MemStore) Len(coll Name) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[coll])
}

func (s *MemStore) check(ctx context.Context, op string, coll Name, id int64) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: op, Collection: coll, ID: id, Err: err}
	}
	if !coll.Valid() {
		return &TransportError{Op: op, Collection: coll, ID: id, StatusCode: 404, Err: ErrNotFound}
	}
	return nil
}

func (s *MemStore) indexOf(coll Name, id int64) int {
	for i, r := range s.records[coll] {
		if recordID(r) == id {
			return i
		}
	}
	return -1
}

func recordID(r record) int64 {
	if f, ok := r["id"].(float64); ok {
		return int64(f)
	}
	return 0
}

func matches(r record, filter Filter) bool {
	for k, want := range filter {
		if stringify(r[k]) != want {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toRecord(v any) (record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	r := record{}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return r, nil
}

func decodeInto(op string, coll Name, id int64, v any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &TransportError{Op: op, Collection: coll, ID: id, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Collection: coll, ID: id, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
