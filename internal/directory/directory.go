// Package directory keeps each family member and its login credential in
// agreement on top of the flat collection store.
//
// The store has no transactions or constraints, so every member/user pair
// is written with two independent calls. A failure between them is not rolled
// back: the error wraps ErrCredentialSync and the two collections stay out of
// step until someone repairs them. Email uniqueness is likewise a
// check-then-act against the store and assumes a single writer.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/familydo/internal/collection"
	"github.com/dukerupert/familydo/internal/model"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateEmail is returned by CreateMember when a member or user
	// already uses the email.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrCredentialSync marks a member write that succeeded while the
	// matching users write did not.
	ErrCredentialSync = errors.New("member and credential out of sync")
)

// Client is stateless; every call goes straight to the store.
type Client struct {
	store  collection.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store collection.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{store: store, logger: logger, now: time.Now}
}

// Login looks the credentials up in users first, then in members. A member
// found only in members is given a users record so the next login hits the
// first lookup. No match returns nil without error.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	creds := collection.Filter{"email": email, "password": password}

	var users []model.User
	if err := c.store.List(ctx, collection.Users, creds, &users); err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	if len(users) > 0 {
		c.logger.Info("login", "email", email, "source", "users")
		return &users[0], nil
	}

	var members []model.Member
	if err := c.store.List(ctx, collection.Members, creds, &members); err != nil {
		return nil, fmt.Errorf("lookup members: %w", err)
	}
	if len(members) == 0 {
		c.logger.Info("login rejected", "email", email)
		return nil, nil
	}

	m := members[0]
	if err := c.store.Create(ctx, collection.Users, model.UserFromMember(m, model.RoleMember), nil); err != nil {
		// A users record with this email but a stale password is left behind
		// by a failed UpdateMember; the member's own credentials still hold.
		if !isConflict(err) {
			return nil, fmt.Errorf("migrate member credential: %w", err)
		}
		c.logger.Warn("credential already exists for member", "email", email, "member_id", m.ID)
	}
	c.logger.Info("login", "email", email, "source", "members", "member_id", m.ID)

	u := m.AsUser()
	return &u, nil
}

func isConflict(err error) bool {
	var te *collection.TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusConflict
}

// EmailExists reports whether any user or member has the email. Both
// lookups run concurrently.
func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	byEmail := collection.Filter{"email": email}
	var users []model.User
	var members []model.Member

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.store.List(gctx, collection.Users, byEmail, &users); err != nil {
			return fmt.Errorf("lookup users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.store.List(gctx, collection.Members, byEmail, &members); err != nil {
			return fmt.Errorf("lookup members: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	return len(users) > 0 || len(members) > 0, nil
}

func (c *Client) ListMembers(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := c.store.List(ctx, collection.Members, nil, &members); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	if err := c.store.Get(ctx, collection.Members, id, &m); err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

// CreateMember writes the member and then its credential, both with role
// member. If the credential write fails the created member is still returned
// together with an error wrapping ErrCredentialSync.
func (c *Client) CreateMember(ctx context.Context, m model.Member) (*model.Member, error) {
	exists, err := c.EmailExists(ctx, m.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	m.ID = 0
	m.Role = model.RoleMember

	var created model.Member
	if err := c.store.Create(ctx, collection.Members, m, &created); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	c.logger.Info("member created", "member_id", created.ID, "email", created.Email)

	if err := c.store.Create(ctx, collection.Users, model.UserFromMember(m, model.RoleMember), nil); err != nil {
		c.logger.Error("credential create failed", "member_id", created.ID, "error", err)
		return &created, fmt.Errorf("%w: create user: %w", ErrCredentialSync, err)
	}
	return &created, nil
}

// UpdateMember patches the member, then applies the same patch to the users
// record matching the member's email after the update. A missing users
// record is skipped silently.
func (c *Client) UpdateMember(ctx context.Context, id int64, patch model.MemberPatch) (*model.Member, error) {
	var updated model.Member
	if err := c.store.Update(ctx, collection.Members, id, patch, &updated); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	var users []model.User
	if err := c.store.List(ctx, collection.Users, collection.Filter{"email": updated.Email}, &users); err != nil {
		return &updated, fmt.Errorf("%w: lookup user: %w", ErrCredentialSync, err)
	}
	if len(users) == 0 {
		c.logger.Debug("no credential to update", "member_id", id, "email", updated.Email)
		return &updated, nil
	}

	if err := c.store.Update(ctx, collection.Users, users[0].ID, patch, nil); err != nil {
		return &updated, fmt.Errorf("%w: update user: %w", ErrCredentialSync, err)
	}
	return &updated, nil
}

// DeleteMember reads the member for its email, deletes it, then deletes the
// first users record with that email if there is one.
func (c *Client) DeleteMember(ctx context.Context, id int64) error {
	var m model.Member
	if err := c.store.Get(ctx, collection.Members, id, &m); err != nil {
		return fmt.Errorf("get member: %w", err)
	}

	if err := c.store.Delete(ctx, collection.Members, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	c.logger.Info("member deleted", "member_id", id, "email", m.Email)

	var users []model.User
	if err := c.store.List(ctx, collection.Users, collection.Filter{"email": m.Email}, &users); err != nil {
		return fmt.Errorf("%w: lookup user: %w", ErrCredentialSync, err)
	}
	if len(users) == 0 {
		return nil
	}

	if err := c.store.Delete(ctx, collection.Users, users[0].ID); err != nil {
		return fmt.Errorf("%w: delete user: %w", ErrCredentialSync, err)
	}
	return nil
}
