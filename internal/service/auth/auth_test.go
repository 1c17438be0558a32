package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	pasetotoken "github.com/clinicheck/clinicheck_backend/pkg/paseto"
	"github.com/clinicheck/clinicheck_backend/pkg/util/password"
)

type fixture struct {
	svc   Service
	store *docstore.MemoryStore
	mr    *miniredis.Miniredis
	rdb   *redis.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mgr, err := pasetotoken.New(pasetotoken.Config{
		Mode:      pasetotoken.ModeLocal,
		Issuer:    "clinicheck",
		Audience:  "clinicheck",
		AccessTTL: 15 * time.Minute,
	}, pasetotoken.NewLocalKeys())
	require.NoError(t, err)

	store := docstore.NewMemory()
	cfg := DefaultConfig()
	cfg.MaxFailedAttempts = 3
	return &fixture{
		svc:   New(store, rdb, mgr, password.NewHasher(password.LowMemoryConfig()), cfg),
		store: store,
		mr:    mr,
		rdb:   rdb,
	}
}

func (f *fixture) register(t *testing.T, email, pw, role string) string {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterRequest{Email: email, Password: pw, Type: role})
	require.NoError(t, err)
	return res.UID
}

func TestCreateAccount_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
		pw    string
		want  error
	}{
		{"missing email", "", "secret1", ErrMissingFields},
		{"missing password", "a@b.co", "", ErrMissingFields},
		{"invalid email", "not-an-email", "secret1", ErrInvalidEmail},
		{"no domain dot", "a@localhost", "secret1", ErrInvalidEmail},
		{"display name form", "Ana <ana@x.com>", "secret1", ErrInvalidEmail},
		{"weak password", "a@b.co", "12345", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateAccount(ctx, tt.email, tt.pw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateAccount_NormalizesAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	uid, err := f.svc.CreateAccount(ctx, "  Ana@X.com ", "secret1")
	require.NoError(t, err)

	doc, err := f.store.Get(ctx, schema.Cuentas, uid)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", doc.String("email"))
	assert.NotEqual(t, "secret1", doc.String("passwordHash"))

	_, err = f.svc.CreateAccount(ctx, "ana@x.com", "another1")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestRegister_WritesRoleRecordForKnownTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	uid := f.register(t, "doc@x.com", "secret1", "Medico")
	user, err := f.store.Get(ctx, schema.Usuarios, uid)
	require.NoError(t, err)
	assert.Equal(t, "medico", user.String("rol"))

	other := f.register(t, "x@x.com", "secret1", "visitante")
	_, err = f.store.Get(ctx, schema.Usuarios, other)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pacUID := f.register(t, "pac@x.com", "secret1", "paciente")
	f.register(t, "med@x.com", "secret1", "medico")
	f.register(t, "norole@x.com", "secret1", "")

	res, err := f.svc.Login(ctx, LoginRequest{Email: "PAC@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, pacUID, res.UID)
	assert.Equal(t, "paciente", res.Rol)
	assert.NotEmpty(t, res.IDToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(900), res.ExpiresIn)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "med@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "norole@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrNoRoleRecord)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "pac@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)

	dash, err := f.svc.DashboardLogin(ctx, LoginRequest{Email: "med@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "medico", dash.Rol)

	_, err = f.svc.DashboardLogin(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "pac@x.com", "secret1", "paciente")
	require.NoError(t, f.store.Merge(ctx, schema.Cuentas, uid, map[string]any{"disabled": true}))

	_, err := f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestLogin_ThrottlesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "pac@x.com", "secret1", "paciente")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "wrong!"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	f.mr.FastForward(16 * time.Minute)
	_, err = f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ghost@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRefreshLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "pac@x.com", "secret1", "paciente")

	res, err := f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	require.NoError(t, err)

	caller, err := f.svc.Authenticate(ctx, res.IDToken)
	require.NoError(t, err)
	assert.Equal(t, uid, caller.UID)
	assert.True(t, caller.Verified)

	_, err = f.svc.Authenticate(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	rotated, err := f.svc.RefreshTokens(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.IDToken, rotated.IDToken)
	_, err = f.svc.RefreshTokens(ctx, res.IDToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.svc.Logout(ctx, caller.SessionID))
	require.NoError(t, f.svc.Logout(ctx, caller.SessionID))

	_, err = f.svc.Authenticate(ctx, rotated.IDToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.RefreshTokens(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteAccount_RevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := f.register(t, "pac@x.com", "secret1", "paciente")

	res, err := f.svc.Login(ctx, LoginRequest{Email: "pac@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(ctx, uid))
	require.NoError(t, f.svc.DeleteAccount(ctx, uid))

	_, err = f.svc.Authenticate(ctx, res.IDToken)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.store.Get(ctx, schema.Cuentas, uid)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	// The email is free again.
	_, err = f.svc.CreateAccount(ctx, "pac@x.com", "secret1")
	require.NoError(t, err)
}
