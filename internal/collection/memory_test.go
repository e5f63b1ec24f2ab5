package collection

import (
	"context"
	"testing"
)

func TestMemStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	var a, b member
	if err := s.Create(ctx, Members, member{Email: "a@x.com"}, &a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := s.Create(ctx, Members, member{Email: "b@x.com"}, &b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	var found []member
	if err := s.List(ctx, Members, Filter{"email": "b@x.com"}, &found); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(found) != 1 || found[0].ID != 2 {
		t.Errorf("found = %+v", found)
	}

	var byID []member
	if err := s.List(ctx, Members, Filter{"id": "1"}, &byID); err != nil {
		t.Fatalf("list by id: %v", err)
	}
	if len(byID) != 1 || byID[0].Email != "a@x.com" {
		t.Errorf("by id = %+v", byID)
	}

	var updated member
	if err := s.Update(ctx, Members, 1, map[string]any{"email": "z@x.com", "id": 99}, &updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != 1 || updated.Email != "z@x.com" {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.Delete(ctx, Members, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var got member
	if err := s.Get(ctx, Members, 1, &got); !IsNotFound(err) {
		t.Errorf("get deleted: err = %v, want not found", err)
	}
	if s.Len(Members) != 1 {
		t.Errorf("len = %d, want 1", s.Len(Members))
	}
}

func TestMemStoreEmptyListIsEmptySlice(t *testing.T) {
	var out []member
	if err := NewMemStore().List(context.Background(), Tasks, nil, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("out = %#v, want empty slice", out)
	}
}

func TestMemStoreUnknownCollection(t *testing.T) {
	err := NewMemStore().Create(context.Background(), Name("chores"), member{}, nil)
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestMemStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemStore().List(ctx, Tasks, nil, nil); !IsTransport(err) {
		t.Errorf("err = %v, want TransportError", err)
	}
}
