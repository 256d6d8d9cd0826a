package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.UserEvent
	err    error
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, body.(entity.UserEvent))
	return nil
}

type fakeSearcher struct {
	users []entity.User
	err   error
	q     string
	size  int
}

func (f *fakeSearcher) Search(_ context.Context, q string, size int) ([]entity.User, error) {
	f.q, f.size = q, size
	return f.users, f.err
}

func newTestService(t *testing.T) (*Service, *memory.UserRepository, *fakePublisher) {
	t.Helper()
	repo := memory.NewUserRepository()
	pub := &fakePublisher{}
	svc := NewService(repo, helpers.NewBcryptHasher(bcrypt.MinCost), helpers.NewTokenManager("test-secret", time.Hour), nil).
		WithEvents(pub)
	return svc, repo, pub
}

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	return ae.Kind
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	_, err := svc.CreateUser(ctx, CreateUserInput{Name: "Ann", Email: "ann@mail.com", Password: "pw"})
	require.NoError(t, err)

	token, err := svc.Login(ctx, "ann@mail.com", "pw")
	require.NoError(t, err)
	claims, err := svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ann@mail.com", claims.Email)

	_, errWrong := svc.Login(ctx, "ann@mail.com", "nope")
	_, errUnknown := svc.Login(ctx, "ghost@mail.com", "pw")
	for _, err := range []error{errWrong, errUnknown} {
		assert.Equal(t, apperror.KindUnauthenticated, kindOf(t, err))
		assert.Equal(t, MsgInvalidCredentials, apperror.From(err).Message)
	}
}

func TestCreateUser_HashesAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)

	u, err := svc.CreateUser(ctx, CreateUserInput{Name: " Ann ", Email: "ann@mail.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash)
	assert.True(t, svc.Hasher.Verify("pw", stored.PasswordHash))

	require.Len(t, pub.events, 1)
	assert.Equal(t, entity.UserCreated, pub.events[0].Type)
	assert.Equal(t, u.ID, pub.events[0].UserID)
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "  ", Email: "a@mail.com"})

	ae := apperror.From(err)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.Equal(t, MsgFieldsRequired, ae.Message)
	assert.Equal(t, map[string]string{"name": "is required", "password": "is required"}, ae.Details)
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	in := CreateUserInput{Name: "A", Email: "a@mail.com", Password: "pw"}
	_, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, in)
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))
	assert.Equal(t, MsgUserExists, apperror.From(err).Message)
	assert.Len(t, pub.events, 1)
}

func TestUpdateUser_NameOnlyKeepsEmailAndDigest(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	u, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@mail.com", Password: "pw"})
	require.NoError(t, err)
	before, _ := repo.GetByID(ctx, u.ID)

	name := "Alice"
	empty := ""
	updated, err := svc.UpdateUser(ctx, u.ID, UpdateUserInput{Name: &name, Email: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "a@mail.com", updated.Email)

	after, _ := repo.GetByID(ctx, u.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, entity.UserUpdated, pub.events[len(pub.events)-1].Type)
}

func TestUpdateUser_PasswordIsRehashed(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	u, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@mail.com", Password: "old"})
	require.NoError(t, err)

	pw := "new"
	_, err = svc.UpdateUser(ctx, u.ID, UpdateUserInput{Password: &pw})
	require.NoError(t, err)

	stored, _ := repo.GetByID(ctx, u.ID)
	assert.True(t, svc.Hasher.Verify("new", stored.PasswordHash))
	_, err = svc.Login(ctx, "a@mail.com", "old")
	assert.Error(t, err)
}

func TestUpdateUser_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	a, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@mail.com", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{Name: "B", Email: "b@mail.com", Password: "pw"})
	require.NoError(t, err)

	name := "x"
	_, err = svc.UpdateUser(ctx, 999, UpdateUserInput{Name: &name})
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))

	_, err = svc.UpdateUser(ctx, a.ID, UpdateUserInput{})
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
	assert.Equal(t, MsgNoFields, apperror.From(err).Message)

	taken := "b@mail.com"
	_, err = svc.UpdateUser(ctx, a.ID, UpdateUserInput{Email: &taken})
	assert.Equal(t, apperror.KindConflict, kindOf(t, err))

	bad := "not-an-email"
	_, err = svc.UpdateUser(ctx, a.ID, UpdateUserInput{Name: &name, Email: &bad})
	assert.Equal(t, apperror.KindValidation, kindOf(t, err))
	assert.Equal(t, MsgInvalidUser, apperror.From(err).Message)
	stored, err := svc.Repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
}

func TestDeleteUser_Twice(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)
	u, err := svc.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@mail.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.Equal(t, entity.UserDeleted, pub.events[len(pub.events)-1].Type)

	err = svc.DeleteUser(ctx, u.ID)
	assert.Equal(t, apperror.KindNotFound, kindOf(t, err))
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")

	u, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "A", Email: "a@mail.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
}

func TestListUsers_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)
	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	users, err := svc.SearchUsers(ctx, "a", 5)
	require.NoError(t, err)
	assert.Empty(t, users)

	searcher := &fakeSearcher{users: []entity.User{{ID: 1, Name: "A", Email: "a@mail.com"}}}
	svc.WithSearch(searcher)
	users, err = svc.SearchUsers(ctx, "a", 5)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "a", searcher.q)
	assert.Equal(t, 5, searcher.size)

	searcher.err = errors.New("es down")
	_, err = svc.SearchUsers(ctx, "a", 5)
	assert.Equal(t, apperror.KindInternal, kindOf(t, err))
}
