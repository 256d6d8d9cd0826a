package router

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-admin/config"
	"github.com/oksasatya/go-user-admin/internal/container"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

const secret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	t      *testing.T
	c      *container.Container
	repo   *memory.UserRepository
	engine *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:        "go-user-admin-test",
		Env:            "production",
		JWTSecret:      secret,
		AccessTTL:      time.Hour,
		BcryptCost:     bcrypt.MinCost,
		LoginRateLimit: 10,
		ESUsersIndex:   "users",
	}
}

func newFixture(t *testing.T, mutate ...func(*container.Container)) *fixture {
	t.Helper()
	repo := memory.NewUserRepository()
	c := &container.Container{
		Config: testConfig(),
		Logger: helpers.DiscardLogger(),
		Repo:   repo,
	}
	for _, m := range mutate {
		m(c)
	}
	c.Build()
	return &fixture{t: t, c: c, repo: repo, engine: NewEngine(c)}
}

func (f *fixture) api() *apitest.APITest {
	return apitest.New().Handler(f.engine)
}

func (f *fixture) seed(name, email, password string) *entity.User {
	f.t.Helper()
	digest, err := f.c.Hasher.Hash(password)
	require.NoError(f.t, err)
	u := &entity.User{Name: name, Email: email, PasswordHash: digest}
	require.NoError(f.t, f.repo.Create(context.Background(), u))
	return u
}

func (f *fixture) bearer() string {
	f.t.Helper()
	tok, _, err := f.c.Tokens.Issue(1, "admin@mail.com")
	require.NoError(f.t, err)
	return "Bearer " + tok
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.seed("admin", "admin@mail.com", "adminpassword")

	var body struct {
		Token string `json:"token"`
	}
	f.api().
		Post("/api/login").
		JSON(`{"email":"admin@mail.com","password":"adminpassword"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.token")).
		End().
		JSON(&body)

	f.api().
		Get("/api/verify").
		Header("Authorization", "Bearer "+body.Token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.valid", true)).
		Assert(jsonpath.Equal("$.user.email", "admin@mail.com")).
		Assert(jsonpath.Present("$.user.exp")).
		End()
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.seed("admin", "admin@mail.com", "adminpassword")

	for _, payload := range []string{
		`{"email":"ghost@mail.com","password":"adminpassword"}`,
		`{"email":"admin@mail.com","password":"wrong"}`,
		`{"email":"admin@mail.com"}`,
		`{"email":`,
	} {
		f.api().
			Post("/api/login").
			JSON(payload).
			Expect(t).
			Status(http.StatusUnauthorized).
			Assert(jsonpath.Equal("$.message", "Invalid email or password")).
			Assert(jsonpath.NotPresent("$.details")).
			End()
	}
}

func TestProtectedRoutes_TokenStates(t *testing.T) {
	f := newFixture(t)
	body := `{"name":"Ann","email":"ann@mail.com","password":"pw"}`

	f.api().
		Post("/api/users").
		JSON(body).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.message", "No token provided")).
		End()

	past := helpers.NewTokenManager(secret, time.Hour).WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := past.Issue(1, "admin@mail.com")
	require.NoError(t, err)
	f.api().
		Post("/api/users").
		Header("Authorization", "Bearer "+expired).
		JSON(body).
		Expect(t).
		Status(http.StatusForbidden).
		Assert(jsonpath.Equal("$.message", "Invalid or expired token")).
		End()

	forged, _, err := helpers.NewTokenManager("other-secret", time.Hour).Issue(1, "admin@mail.com")
	require.NoError(t, err)
	f.api().
		Get("/api/users").
		Header("Authorization", "Bearer "+forged).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	f.api().
		Get("/api/verify").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	// nothing was created by the rejected requests
	users, err := f.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	auth := f.bearer()

	f.api().
		Post("/api/users").
		Header("Authorization", auth).
		JSON(`{"name":"Ann","email":"ann@mail.com","password":"pw"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.id", float64(1))).
		Assert(jsonpath.Equal("$.name", "Ann")).
		Assert(jsonpath.Equal("$.email", "ann@mail.com")).
		Assert(jsonpath.NotPresent("$.password")).
		Assert(jsonpath.NotPresent("$.password_hash")).
		End()

	stored, err := f.repo.GetByEmail(context.Background(), "ann@mail.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash)
	assert.True(t, f.c.Hasher.Verify("pw", stored.PasswordHash))

	f.api().
		Post("/api/users").
		Header("Authorization", auth).
		JSON(`{"name":"Other","email":"ann@mail.com","password":"pw2"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "User already exists")).
		End()
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture(t)
	auth := f.bearer()

	f.api().
		Post("/api/users").
		Header("Authorization", auth).
		JSON(`{"name":"Ann","email":"ann@mail.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "All fields are required")).
		Assert(jsonpath.Equal("$.details.password", "is required")).
		End()

	f.api().
		Post("/api/users").
		Header("Authorization", auth).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "All fields are required")).
		End()

	f.api().
		Post("/api/users").
		Header("Authorization", auth).
		JSON(`{"name":"Ann","email":"not-an-email","password":"pw"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "Invalid user data")).
		Assert(jsonpath.Equal("$.details.email", "must be a valid email")).
		End()
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	auth := f.bearer()
	u := f.seed("Ann", "ann@mail.com", "pw")
	before, _ := f.repo.GetByID(context.Background(), u.ID)

	f.api().
		Put("/api/users/1").
		Header("Authorization", auth).
		JSON(`{"name":"Annie"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.name", "Annie")).
		Assert(jsonpath.Equal("$.email", "ann@mail.com")).
		End()

	after, _ := f.repo.GetByID(context.Background(), u.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	f.api().
		Put("/api/users/1").
		Header("Authorization", auth).
		JSON(`{"name":"Annie B","email":"","password":""}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.name", "Annie B")).
		Assert(jsonpath.Equal("$.email", "ann@mail.com")).
		End()

	f.api().
		Put("/api/users/1").
		Header("Authorization", auth).
		JSON(`{"email":"nope"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "Invalid user data")).
		End()

	f.api().
		Put("/api/users/1").
		Header("Authorization", auth).
		JSON(`{"name":"","email":""}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "No fields to update")).
		End()

	for _, path := range []string{"/api/users/99", "/api/users/abc", "/api/users/-1"} {
		f.api().
			Put(path).
			Header("Authorization", auth).
			JSON(`{"name":"x"}`).
			Expect(t).
			Status(http.StatusNotFound).
			Assert(jsonpath.Equal("$.message", "User not found")).
			End()
	}
}

func TestDeleteUser_Twice(t *testing.T) {
	f := newFixture(t)
	auth := f.bearer()
	f.seed("Ann", "ann@mail.com", "pw")

	f.api().
		Delete("/api/users/1").
		Header("Authorization", auth).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"message":"User deleted successfully"}`).
		End()

	f.api().
		Delete("/api/users/1").
		Header("Authorization", auth).
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal("$.message", "User not found")).
		End()
}

func TestListUsers_StableOrdering(t *testing.T) {
	f := newFixture(t)
	auth := f.bearer()

	f.api().
		Get("/api/users").
		Header("Authorization", auth).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()

	f.seed("A", "a@mail.com", "pw")
	f.seed("B", "b@mail.com", "pw")

	for i := 0; i < 2; i++ {
		f.api().
			Get("/api/users").
			Header("Authorization", auth).
			Expect(t).
			Status(http.StatusOK).
			Assert(jsonpath.Len("$", 2)).
			Assert(jsonpath.Equal("$[0].email", "b@mail.com")).
			Assert(jsonpath.Equal("$[1].email", "a@mail.com")).
			End()
	}
}

func TestSearch_DisabledReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	f.api().
		Get("/api/users/search").
		Query("q", "ann").
		Header("Authorization", f.bearer()).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()
}

type brokenRepo struct{ repository.UserRepository }

func (brokenRepo) List(context.Context) ([]entity.User, error) {
	return nil, errors.New("connection refused")
}

func TestInternalErrors_DetailsOnlyInDevelopment(t *testing.T) {
	prod := newFixture(t, func(c *container.Container) { c.Repo = brokenRepo{} })
	prod.api().
		Get("/api/users").
		Header("Authorization", prod.bearer()).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.message", "Error retrieving users")).
		Assert(jsonpath.NotPresent("$.details")).
		Assert(jsonpath.Present("$.request_id")).
		End()

	dev := newFixture(t, func(c *container.Container) {
		c.Repo = brokenRepo{}
		c.Config.Env = "development"
	})
	dev.api().
		Get("/api/users").
		Header("Authorization", dev.bearer()).
		Expect(t).
		Status(http.StatusInternalServerError).
		Assert(jsonpath.Equal("$.details", "connection refused")).
		End()
}

func TestLoginRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newFixture(t, func(c *container.Container) {
		c.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		c.Config.LoginRateLimit = 2
	})
	t.Cleanup(func() { _ = f.c.Redis.Close() })

	for i := 0; i < 2; i++ {
		f.api().
			Post("/api/login").
			JSON(`{"email":"ghost@mail.com","password":"x"}`).
			Expect(t).
			Status(http.StatusUnauthorized).
			Header("X-RateLimit-Limit", "2").
			End()
	}
	f.api().
		Post("/api/login").
		JSON(`{"email":"ghost@mail.com","password":"x"}`).
		Expect(t).
		Status(http.StatusTooManyRequests).
		Assert(jsonpath.Equal("$.message", "rate limit exceeded")).
		End()
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.api().
		Get("/api/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.timestamp")).
		HeaderPresent("X-Request-ID").
		End()

	mr := miniredis.RunT(t)
	down := newFixture(t, func(c *container.Container) {
		c.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	})
	t.Cleanup(func() { _ = down.c.Redis.Close() })
	mr.Close()

	down.api().
		Get("/api/health").
		Expect(t).
		Status(http.StatusServiceUnavailable).
		Assert(jsonpath.Equal("$.status.redis", "down")).
		End()
}

func TestDebugVars_Toggle(t *testing.T) {
	off := newFixture(t)
	off.api().Get("/api/debug/vars").Expect(t).Status(http.StatusNotFound).End()

	on := newFixture(t, func(c *container.Container) { c.Config.DebugMetricsEnabled = true })
	on.api().
		Get("/api/debug/vars").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.login_success_total")).
		End()
}
