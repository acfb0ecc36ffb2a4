package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/shop-backend/pkg/auth"
	"github.com/angelmondragon/shop-backend/pkg/config"
	"github.com/angelmondragon/shop-backend/pkg/db"
	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
)

var (
	testJWT      = config.JWTConfig{Secret: "secret", Issuer: "shop-backend", ExpirationMinutes: 15}
	testPassword = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
)

type stubSessions struct {
	opened  map[string]uuid.UUID
	revoked []string
	err     error
}

func newStubSessions() *stubSessions {
	return &stubSessions{opened: map[string]uuid.UUID{}}
}

func (s *stubSessions) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.opened[accessID] = userID
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type fixture struct {
	repo     *users.Repository
	register RegisterService
	sessions *stubSessions
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	repo := users.NewRepository(conn)
	register, err := NewRegisterService(RegisterServiceParams{Tx: db.NewFromGorm(conn), Users: repo, PasswordConfig: testPassword})
	require.NoError(t, err)

	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWT, Now: func() time.Time { return time.Now().UTC() }})
	require.NoError(t, err)
	return &fixture{repo: repo, register: register, sessions: sessions, svc: svc}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.register.Register(ctx, RegisterRequest{Username: "ann", Email: " Ann@Example.com ", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", user.Email)
	require.Equal(t, enums.UserRoleCustomer, user.Role)

	stored, err := f.repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "password123", stored.PasswordHash)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, 900, resp.ExpiresIn)
	require.Equal(t, user.ID, resp.User.ID)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.ID, f.sessions.opened[claims.ID])
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register.Register(ctx, RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = f.register.Register(ctx, RegisterRequest{Username: "ann", Email: "other@example.com", Password: "password123"})
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = f.register.Register(ctx, RegisterRequest{Username: "bob", Email: "ANN@example.com", Password: "password123"})
	requireCode(t, err, pkgerrors.CodeConflict)

	_, err = f.register.Register(ctx, RegisterRequest{Username: "", Email: "x@example.com", Password: "password123"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register.Register(ctx, RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ann@example.com", Password: "wrong-password"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "missing@example.com", Password: "password123"})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = f.svc.Login(ctx, LoginRequest{})
	requireCode(t, err, pkgerrors.CodeUnauthorized)
	require.Empty(t, f.sessions.opened)
}

func TestLoginSessionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.register.Register(ctx, RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	f.sessions.err = errors.New("redis down")

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ann@example.com", Password: "password123"})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestLogoutAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.register.Register(ctx, RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)

	profile, err := f.svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "ann", profile.Username)

	_, err = f.svc.Profile(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, f.svc.Logout(ctx, "jti-1"))
	require.Equal(t, []string{"jti-1"}, f.sessions.revoked)
	requireCode(t, f.svc.Logout(ctx, ""), pkgerrors.CodeUnauthorized)
}
