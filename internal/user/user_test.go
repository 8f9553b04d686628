package user

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-agua/internal/common"
)

type memStore struct {
	users  map[int64]User
	nextID int64
}

func newMemStore(seed ...User) *memStore {
	s := &memStore{users: map[int64]User{}, nextID: 1}
	for _, u := range seed {
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, pgx.ErrNoRows
}

func (s *memStore) Create(_ context.Context, u *User) error {
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = *u
	return nil
}

func (s *memStore) Update(_ context.Context, u *User) error {
	if _, ok := s.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.users[u.ID] = *u
	return nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}

	u, err := svc.Create(context.Background(), Input{
		Username: "Admin",
		Password: "correct-horse",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, "admin", u.Username)
	require.NotEqual(t, "correct-horse", u.PasswordHash)
	require.True(t, VerifyPassword("correct-horse", u.PasswordHash))
	require.False(t, VerifyPassword("wrong", u.PasswordHash))
}

func TestUpdateKeepsPasswordWhenEmpty(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}
	created, err := svc.Create(context.Background(), Input{Username: "op", Password: "password1", Role: RoleOperator})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
		Username: "op",
		FullName: "Operator One",
		Role:     RoleOperator,
	})
	require.NoError(t, err)
	require.Equal(t, created.PasswordHash, updated.PasswordHash)
	require.Equal(t, "Operator One", updated.FullName)
}

func TestDeleteLastAdminRefused(t *testing.T) {
	store := newMemStore(User{ID: 1, Username: "admin", Role: RoleAdmin})
	svc := &Service{Store: store}

	err := svc.Delete(context.Background(), 1)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "LAST_ADMIN", appErr.Code)
	require.Contains(t, store.users, int64(1))
}

func TestDeleteAdminWithAnotherAdmin(t *testing.T) {
	store := newMemStore(
		User{ID: 1, Username: "admin", Role: RoleAdmin},
		User{ID: 2, Username: "admin2", Role: RoleAdmin},
	)
	svc := &Service{Store: store}

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.NotContains(t, store.users, int64(1))
}
