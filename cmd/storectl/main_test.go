package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	repository.UserRepository
	byEmail map[string]*domain.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role string) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func TestEnsureAdmin_CreatesHashedAdmin(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*domain.User{}}

	user, created, err := ensureAdmin(context.Background(), users, adminInput{
		Email: "  Ops@Shop.test ", Password: "s3cretpass", FirstName: "Ops", LastName: "Team",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ops@shop.test", user.Email)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")))
}

func TestEnsureAdmin_ShortPasswordRejected(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*domain.User{}}

	_, _, err := ensureAdmin(context.Background(), users, adminInput{Email: "a@b.test", Password: "short"})
	assert.Error(t, err)
	assert.Empty(t, users.byEmail)
}

func TestEnsureAdmin_ExistingAccountNeedsPromote(t *testing.T) {
	existing := &domain.User{ID: uuid.New(), Email: "buyer@shop.test", Role: domain.RoleUser, PasswordHash: "keep"}
	users := &fakeUsers{byEmail: map[string]*domain.User{existing.Email: existing}}

	_, _, err := ensureAdmin(context.Background(), users, adminInput{Email: existing.Email})
	require.Error(t, err)
	assert.Equal(t, domain.RoleUser, existing.Role)

	user, created, err := ensureAdmin(context.Background(), users, adminInput{Email: existing.Email, Promote: true})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "keep", user.PasswordHash)
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	applied := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, printStatus(&out, []database.MigrationInfo{
		{Version: 1, Path: "00001_create_users_table.sql", Applied: true, AppliedAt: applied},
		{Version: 2, Path: "00002_create_refresh_tokens_table.sql"},
	}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"VERSION", "STATE", "APPLIED", "AT", "FILE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "applied", "2024-03-01T09:30:00Z", "00001_create_users_table.sql"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "pending", "-", "00002_create_refresh_tokens_table.sql"}, strings.Fields(lines[2]))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"migrate", "up"}, {"migrate", "down"}, {"migrate", "status"}, {"create-admin"}, {"prune-tokens"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	createAdmin, _, err := root.Find([]string{"create-admin"})
	require.NoError(t, err)
	for _, flag := range []string{"email", "password", "first-name", "last-name", "promote"} {
		assert.NotNil(t, createAdmin.Flags().Lookup(flag), flag)
	}
}
