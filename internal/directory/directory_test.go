package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/model"
)

// recordingStore wraps a MemStore, logs every primitive as "op collection"
// and can fail a chosen call.
type recordingStore struct {
	*collection.MemStore
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemStore: collection.NewMemStore(), failOn: map[string]error{}}
}

func (s *recordingStore) record(op string, coll collection.Name) error {
	key := fmt.Sprintf("%s %s", op, coll)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, key)
	if err, ok := s.failOn[key]; ok {
		return &collection.TransportError{Op: op, Collection: coll, Err: err}
	}
	return nil
}

func (s *recordingStore) List(ctx context.Context, coll collection.Name, f collection.Filter, out any) error {
	if err := s.record("list", coll); err != nil {
		return err
	}
	return s.MemStore.List(ctx, coll, f, out)
}

func (s *recordingStore) Get(ctx context.Context, coll collection.Name, id int64, out any) error {
	if err := s.record("get", coll); err != nil {
		return err
	}
	return s.MemStore.Get(ctx, coll, id, out)
}

func (s *recordingStore) Create(ctx context.Context, coll collection.Name, in, out any) error {
	if err := s.record("create", coll); err != nil {
		return err
	}
	return s.MemStore.Create(ctx, coll, in, out)
}

func (s *recordingStore) Update(ctx context.Context, coll collection.Name, id int64, patch, out any) error {
	if err := s.record("update", coll); err != nil {
		return err
	}
	return s.MemStore.Update(ctx, coll, id, patch, out)
}

func (s *recordingStore) Delete(ctx context.Context, coll collection.Name, id int64) error {
	if err := s.record("delete", coll); err != nil {
		return err
	}
	return s.MemStore.Delete(ctx, coll, id)
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *recordingStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == key {
			n++
		}
	}
	return n
}

func setupClient(t *testing.T) (*Client, *recordingStore) {
	t.Helper()
	rs := newRecordingStore()
	c := New(rs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return c, rs
}

func seed(t *testing.T, rs *recordingStore, coll collection.Name, v any) {
	t.Helper()
	if err := rs.MemStore.Create(context.Background(), coll, v, nil); err != nil {
		t.Fatalf("seed %s: %v", coll, err)
	}
}

func sampleMember(email string) model.Member {
	return model.Member{FirstName: "Amel", LastName: "Trabelsi", Phone: "20123456", Email: email, Password: "p"}
}

func TestLoginFromUsersSkipsMembers(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Users, model.User{Email: "a@x.com", Password: "p", Role: model.RoleAdmin, FirstName: "Admin"})

	u, err := c.Login(context.Background(), "a@x.com", "p")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u == nil || u.Email != "a@x.com" || u.Role != model.RoleAdmin {
		t.Fatalf("user = %+v", u)
	}
	if n := rs.count("list members"); n != 0 {
		t.Errorf("members list calls = %d, want 0", n)
	}
}

func TestLoginMigratesMemberOnlyAccount(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Members, sampleMember("b@x.com"))

	u, err := c.Login(context.Background(), "b@x.com", "p")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u == nil || u.Email != "b@x.com" || u.ID != 1 {
		t.Fatalf("user = %+v, want member 1", u)
	}
	if n := rs.count("create users"); n != 1 {
		t.Fatalf("users create calls = %d, want 1", n)
	}

	var users []model.User
	rs.MemStore.List(context.Background(), collection.Users, nil, &users)
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}
	if users[0].Role != model.RoleMember {
		t.Errorf("role = %q, want %q", users[0].Role, model.RoleMember)
	}

	// Second login is served from users.
	rs.reset()
	if _, err := c.Login(context.Background(), "b@x.com", "p"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if n := rs.count("list members"); n != 0 {
		t.Errorf("members list calls on second login = %d, want 0", n)
	}
}

func TestLoginMigrationFailure(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Members, sampleMember("b@x.com"))
	rs.failOn["create users"] = errors.New("connection reset")

	u, err := c.Login(context.Background(), "b@x.com", "p")
	if !collection.IsTransport(err) {
		t.Errorf("err = %v, want TransportError", err)
	}
	if u != nil {
		t.Errorf("user = %+v, want nil", u)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Users, model.User{Email: "a@x.com", Password: "p"})

	u, err := c.Login(context.Background(), "a@x.com", "wrong")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u != nil {
		t.Errorf("user = %+v, want nil", u)
	}
	if n := rs.count("create users"); n != 0 {
		t.Errorf("users create calls = %d, want 0", n)
	}
}

func TestLoginTransportFailure(t *testing.T) {
	c, rs := setupClient(t)
	rs.failOn["list users"] = errors.New("connection refused")

	_, err := c.Login(context.Background(), "a@x.com", "p")
	if !collection.IsTransport(err) {
		t.Errorf("err = %v, want TransportError", err)
	}
}

func TestEmailExists(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Users, model.User{Email: "u@x.com"})
	seed(t, rs, collection.Members, sampleMember("m@x.com"))

	tests := []struct {
		email string
		want  bool
	}{
		{"u@x.com", true},
		{"m@x.com", true},
		{"free@x.com", false},
	}
	for _, tt := range tests {
		got, err := c.EmailExists(context.Background(), tt.email)
		if err != nil {
			t.Fatalf("EmailExists(%q): %v", tt.email, err)
		}
		if got != tt.want {
			t.Errorf("EmailExists(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestEmailExistsPropagatesFailure(t *testing.T) {
	c, rs := setupClient(t)
	rs.failOn["list members"] = errors.New("timeout")

	if _, err := c.EmailExists(context.Background(), "x@x.com"); !collection.IsTransport(err) {
		t.Errorf("err = %v, want TransportError", err)
	}
}

func TestCreateMemberWritesMemberThenUser(t *testing.T) {
	c, rs := setupClient(t)

	in := sampleMember("new@x.com")
	in.Role = model.RoleAdmin
	m, err := c.CreateMember(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID != 1 || m.Role != model.RoleMember {
		t.Errorf("member = %+v", m)
	}

	if rs.count("create members") != 1 || rs.count("create users") != 1 {
		t.Errorf("calls = %v", rs.calls)
	}
	last := rs.calls[len(rs.calls)-2:]
	if last[0] != "create members" || last[1] != "create users" {
		t.Errorf("order = %v, want members then users", last)
	}

	var users []model.User
	rs.MemStore.List(context.Background(), collection.Users, collection.Filter{"email": "new@x.com"}, &users)
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}
	if users[0].Password != "p" || users[0].Role != model.RoleMember {
		t.Errorf("user = %+v", users[0])
	}
}

func TestCreateMemberDuplicateEmail(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Users, model.User{Email: "dup@x.com"})

	_, err := c.CreateMember(context.Background(), sampleMember("dup@x.com"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
	if n := rs.count("create members"); n != 0 {
		t.Errorf("members create calls = %d, want 0", n)
	}
}

func TestCreateMemberCredentialFailureLeavesMember(t *testing.T) {
	c, rs := setupClient(t)
	rs.failOn["create users"] = errors.New("server error")

	m, err := c.CreateMember(context.Background(), sampleMember("half@x.com"))
	if !errors.Is(err, ErrCredentialSync) {
		t.Fatalf("err = %v, want ErrCredentialSync", err)
	}
	if !collection.IsTransport(err) {
		t.Error("expected the transport error to stay reachable")
	}
	if m == nil || m.ID == 0 {
		t.Fatalf("member = %+v, want the created member", m)
	}
	if rs.Len(collection.Members) != 1 || rs.Len(collection.Users) != 0 {
		t.Errorf("members = %d users = %d, want 1 and 0", rs.Len(collection.Members), rs.Len(collection.Users))
	}
}

func TestUpdateMemberPropagatesToUser(t *testing.T) {
	c, rs := setupClient(t)
	if _, err := c.CreateMember(context.Background(), sampleMember("up@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	phone := "98000000"
	m, err := c.UpdateMember(context.Background(), 1, model.MemberPatch{Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Phone != phone {
		t.Errorf("member phone = %q", m.Phone)
	}

	var u model.User
	if err := rs.MemStore.Get(context.Background(), collection.Users, 1, &u); err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Phone != phone {
		t.Errorf("user phone = %q, want %q", u.Phone, phone)
	}
	if u.FirstName != "Amel" {
		t.Errorf("user first name = %q, patch should be partial", u.FirstName)
	}
}

func TestUpdateMemberWithoutUserIsSilent(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Members, sampleMember("solo@x.com"))

	name := "Amira"
	m, err := c.UpdateMember(context.Background(), 1, model.MemberPatch{FirstName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.FirstName != name {
		t.Errorf("first name = %q", m.FirstName)
	}
	if n := rs.count("update users"); n != 0 {
		t.Errorf("users update calls = %d, want 0", n)
	}
}

func TestUpdateMemberLooksUpUserByNewEmail(t *testing.T) {
	c, rs := setupClient(t)
	if _, err := c.CreateMember(context.Background(), sampleMember("old@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	rs.reset()

	email := "renamed@x.com"
	if _, err := c.UpdateMember(context.Background(), 1, model.MemberPatch{Email: &email}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n := rs.count("update users"); n != 0 {
		t.Errorf("users update calls = %d, want 0 (credential still carries the old email)", n)
	}
}

func TestDeleteMemberOrder(t *testing.T) {
	c, rs := setupClient(t)
	if _, err := c.CreateMember(context.Background(), sampleMember("bye@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	rs.reset()

	if err := c.DeleteMember(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"get members", "delete members", "list users", "delete users"}
	if len(rs.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rs.calls, want)
	}
	for i := range want {
		if rs.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, rs.calls[i], want[i])
		}
	}
	if rs.Len(collection.Members) != 0 || rs.Len(collection.Users) != 0 {
		t.Error("expected both collections empty")
	}
}

func TestDeleteMemberWithoutUser(t *testing.T) {
	c, rs := setupClient(t)
	seed(t, rs, collection.Members, sampleMember("solo@x.com"))

	if err := c.DeleteMember(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := rs.count("delete users"); n != 0 {
		t.Errorf("users delete calls = %d, want 0", n)
	}
}

func TestDeleteMemberUserLookupFailure(t *testing.T) {
	c, rs := setupClient(t)
	if _, err := c.CreateMember(context.Background(), sampleMember("x@x.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	rs.failOn["list users"] = errors.New("timeout")

	err := c.DeleteMember(context.Background(), 1)
	if !errors.Is(err, ErrCredentialSync) {
		t.Fatalf("err = %v, want ErrCredentialSync", err)
	}
	if rs.Len(collection.Members) != 0 || rs.Len(collection.Users) != 1 {
		t.Error("expected member deleted and user left behind")
	}
}

func TestDeleteMemberNotFound(t *testing.T) {
	c, _ := setupClient(t)
	if err := c.DeleteMember(context.Background(), 9); !collection.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}
