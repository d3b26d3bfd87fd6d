package users_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/minutier-app/minutier/internal/rbac"
	"github.com/minutier-app/minutier/internal/shared"
	"github.com/minutier-app/minutier/internal/users"
	_ "github.com/minutier-app/minutier/testing"
)

type memoryRepo struct {
	byID    map[string]users.User
	byEmail map[string]users.User
	order   []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]users.User), byEmail: make(map[string]users.User)}
}

func (r *memoryRepo) ListUsers(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out, nil
}

func (r *memoryRepo) GetUser(ctx context.Context, id string) (users.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) CreateUser(ctx context.Context, u users.User) (users.User, error) {
	if _, taken := r.byEmail[u.Email]; taken {
		return users.User{}, users.ErrEmailTaken
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	r.order = append(r.order, u.ID)
	return u, nil
}

func newUsersRouter(t *testing.T, repo users.RepositoryPort) chi.Router {
	t.Helper()
	store := rbac.NewStore()
	_, err := store.Assign("root", rbac.RoleSuperAdmin)
	require.NoError(t, err)
	guard := rbac.Middleware{Service: rbac.NewService(store, nil, nil)}
	handler := users.NewHandler(nil, users.NewService(repo), guard)

	r := chi.NewRouter()
	r.Route("/admin/users", handler.MountRoutes)
	return r
}

func adminRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	sess := &shared.Session{}
	sess.SetUser("root")
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestListUsersPaginated(t *testing.T) {
	repo := newMemoryRepo()
	svc := users.NewService(repo)
	for i := 0; i < 5; i++ {
		_, err := svc.CreateUser(context.Background(), users.CreateInput{
			Email:    fmt.Sprintf("user%d@etude.fr", i),
			Name:     fmt.Sprintf("User %d", i),
			Password: "tr3s-secret",
		})
		require.NoError(t, err)
	}
	router := newUsersRouter(t, repo)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, adminRequest(http.MethodGet, "/admin/users/?page=2&per_page=2", ""))
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Users      []users.User      `json:"users"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Len(t, payload.Users, 2)
	require.Equal(t, "user2@etude.fr", payload.Users[0].Email)
	require.Equal(t, 2, payload.Pagination.Page)
	require.Equal(t, 5, payload.Pagination.Total)
	require.Equal(t, 3, payload.Pagination.TotalPages)
}

func TestCreateUserEndpoint(t *testing.T) {
	router := newUsersRouter(t, newMemoryRepo())

	body := `{"email":"marie@etude.fr","name":"Marie Dupont","password":"tr3s-secret"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, adminRequest(http.MethodPost, "/admin/users/", body))
	require.Equal(t, http.StatusCreated, res.Code)

	var created users.User
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.Equal(t, "marie@etude.fr", created.Email)
	require.NotContains(t, res.Body.String(), "passwordHash")

	res = httptest.NewRecorder()
	router.ServeHTTP(res, adminRequest(http.MethodPost, "/admin/users/", body))
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestCreateUserValidation(t *testing.T) {
	router := newUsersRouter(t, newMemoryRepo())

	body := `{"email":"not-an-email","name":"","password":"short"}`
	res := httptest.NewRecorder()
	router.ServeHTTP(res, adminRequest(http.MethodPost, "/admin/users/", body))
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUsersEndpointsRequireAdmin(t *testing.T) {
	router := newUsersRouter(t, newMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}
