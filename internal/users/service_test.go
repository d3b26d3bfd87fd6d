package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	byID    map[string]User
	byEmail map[string]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]User), byEmail: make(map[string]User)}
}

func (r *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) CreateUser(ctx context.Context, u User) (User, error) {
	if _, taken := r.byEmail[u.Email]; taken {
		return User{}, ErrEmailTaken
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return u, nil
}

func TestCreateUserNormalisesAndHashes(t *testing.T) {
	svc := NewService(newMemoryRepo())

	user, err := svc.CreateUser(context.Background(), CreateInput{
		Email:    "  Marie.Dupont@Etude.FR ",
		Name:     " Marie Dupont ",
		Password: "tr3s-secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "marie.dupont@etude.fr", user.Email)
	require.Equal(t, "Marie Dupont", user.Name)
	require.True(t, user.IsActive)
	require.NotEqual(t, "tr3s-secret", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("tr3s-secret")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateInput{Email: "marie@etude.fr", Name: "Marie", Password: "tr3s-secret"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateInput{Email: "MARIE@etude.fr", Name: "Autre", Password: "tr3s-secret"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateInput{Email: "marie@etude.fr", Name: "Marie Dupont", Password: "tr3s-secret"})
	require.NoError(t, err)

	require.Equal(t, "Marie Dupont", svc.DisplayName(ctx, user.ID))
	require.Equal(t, "ghost", svc.DisplayName(ctx, "ghost"))
}
