package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/authorize"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
	"github.com/clinicheck/clinicheck_backend/pkg/logs"
	pasetotoken "github.com/clinicheck/clinicheck_backend/pkg/paseto"
	appredis "github.com/clinicheck/clinicheck_backend/pkg/redis"
	"github.com/clinicheck/clinicheck_backend/pkg/reqctx"
	"github.com/clinicheck/clinicheck_backend/pkg/util/codes"
	"github.com/clinicheck/clinicheck_backend/pkg/util/password"
)

// redisKeySession returns the Redis key holding the uid of a session.
func redisKeySession(sessionID string) string { return appredis.Key("session", sessionID) }

// redisKeyUserSessions returns the Redis set of a user's session ids.
func redisKeyUserSessions(uid string) string { return appredis.Key("user_sessions", uid) }

// redisKeyLoginFailures returns the Redis counter of failed logins for an email.
func redisKeyLoginFailures(email string) string { return appredis.Key("login_failures", email) }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string
	Password string
	// Type is the role to record for the new user; ignored unless it is a
	// known role.
	Type string
}

type RegisterResult struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds until the access token expires
}

type LoginResult struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Rol   string `json:"rol"`
	AuthTokens
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// CreateAccount stores a new email/password account and returns its uid.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// DeleteAccount removes the account and its sessions. Deleting a
	// missing account succeeds.
	DeleteAccount(ctx context.Context, uid string) error

	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	// Login signs in a patient of the mobile app.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	// DashboardLogin signs in an admin or medico.
	DashboardLogin(ctx context.Context, req LoginRequest) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID string) error

	// Authenticate validates an access token against its live session.
	Authenticate(ctx context.Context, accessToken string) (*reqctx.Caller, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	store  docstore.Store
	rdb    *redis.Client
	paseto *pasetotoken.Manager
	hasher *password.Hasher
	cfg    Config
}

func New(
	store docstore.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg Config,
) Service {
	return &authService{
		store:  store,
		rdb:    rdb,
		paseto: paseto,
		hasher: hasher,
		cfg:    cfg,
	}
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func (s *authService) CreateAccount(ctx context.Context, email, pw string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || pw == "" {
		return "", ErrMissingFields
	}
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}
	if err := password.CheckStrength(pw, s.cfg.MinPasswordLength); err != nil {
		return "", ErrWeakPassword
	}

	existing, err := s.findAccount(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailInUse
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	uid, err := codes.DocumentID()
	if err != nil {
		return "", fmt.Errorf("generate uid: %w", err)
	}

	err = s.store.Set(ctx, schema.Cuentas, uid, map[string]any{
		schema.FieldEmail:        email,
		schema.FieldPasswordHash: hash,
		schema.FieldDisabled:     false,
		schema.FieldCreatedAt:    docstore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return uid, nil
}

func (s *authService) findAccount(ctx context.Context, email string) (*docstore.Document, error) {
	docs, err := s.store.Where(ctx, schema.Cuentas, schema.FieldEmail, email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (s *authService) DeleteAccount(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil
	}
	if err := s.store.Delete(ctx, schema.Cuentas, uid); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	sids, err := s.rdb.SMembers(ctx, redisKeyUserSessions(uid)).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, redisKeySession(sid))
	}
	keys = append(keys, redisKeyUserSessions(uid))
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	uid, err := s.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	role := strings.ToLower(strings.TrimSpace(req.Type))
	if authorize.IsKnownRole(role) {
		err := s.store.Set(ctx, schema.Usuarios, uid, map[string]any{
			schema.FieldEmail:     email,
			schema.FieldRol:       role,
			schema.FieldCreatedAt: docstore.ServerTimestamp,
		})
		if err != nil {
			if delErr := s.DeleteAccount(ctx, uid); delErr != nil {
				logs.FromContext(ctx).Error("register: account left without role record", "uid", uid, "error", delErr)
			}
			return nil, fmt.Errorf("create user record: %w", err)
		}
	}

	return &RegisterResult{UID: uid, Email: email}, nil
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	return s.login(ctx, req, authorize.RolePaciente)
}

func (s *authService) DashboardLogin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	return s.login(ctx, req, authorize.RoleAdmin, authorize.RoleMedico)
}

func (s *authService) login(ctx context.Context, req LoginRequest, allowed ...authorize.Role) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	failures, err := s.rdb.Get(ctx, redisKeyLoginFailures(email)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get login failures: %w", err)
	}
	if failures >= s.cfg.MaxFailedAttempts {
		return nil, ErrTooManyAttempts
	}

	acct, err := s.findAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	hash := acct.String(schema.FieldPasswordHash)
	if acct == nil || hash == "" || s.hasher.Verify(hash, req.Password) != nil {
		s.recordFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if disabled, _ := acct.Data[schema.FieldDisabled].(bool); disabled {
		return nil, ErrAccountDisabled
	}

	s.rdb.Del(ctx, redisKeyLoginFailures(email))

	if s.hasher.NeedsRehash(hash) {
		if newHash, err := s.hasher.Hash(req.Password); err == nil {
			if err := s.store.Merge(ctx, schema.Cuentas, acct.ID, map[string]any{schema.FieldPasswordHash: newHash}); err != nil {
				logs.FromContext(ctx).Warn("login: password rehash not saved", "uid", acct.ID, "error", err)
			}
		}
	}

	user, err := s.store.Get(ctx, schema.Usuarios, acct.ID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNoRoleRecord
	}
	if err != nil {
		return nil, fmt.Errorf("get user record: %w", err)
	}
	rol := strings.ToLower(strings.TrimSpace(user.String(schema.FieldRol)))
	if !roleAllowed(rol, allowed) {
		return nil, ErrRoleNotAllowed
	}

	tokens, err := s.createSession(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UID:        acct.ID,
		Email:      email,
		Rol:        user.String(schema.FieldRol),
		AuthTokens: *tokens,
	}, nil
}

func roleAllowed(rol string, allowed []authorize.Role) bool {
	for _, r := range allowed {
		if string(r) == rol {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	if err := s.checkSession(ctx, claims.SessionID, claims.UserID); err != nil {
		return nil, err
	}

	// Extend the session and rotate both tokens on it.
	s.rdb.Expire(ctx, redisKeySession(claims.SessionID), s.paseto.RefreshTTL())
	return s.issueTokens(claims.UserID, claims.SessionID)
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}
	key := redisKeySession(sessionID)
	uid, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Already expired; not an error from the client's perspective.
		logs.FromContext(ctx).Debug("logout: session not found in Redis", "session_id", sessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get session: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, redisKeyUserSessions(uid), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*reqctx.Caller, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.paseto.Verify(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	if err := s.checkSession(ctx, claims.SessionID, claims.UserID); err != nil {
		return nil, err
	}
	return &reqctx.Caller{UID: claims.UserID, SessionID: claims.SessionID, Verified: true}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) checkSession(ctx context.Context, sessionID, uid string) error {
	owner, err := s.rdb.Get(ctx, redisKeySession(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get session: %w", err)
	}
	if owner != uid {
		return ErrInvalidToken
	}
	return nil
}

func (s *authService) createSession(ctx context.Context, uid string) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7()).String()
	ttl := s.paseto.RefreshTTL()

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisKeySession(sessionID), uid, ttl)
	pipe.SAdd(ctx, redisKeyUserSessions(uid), sessionID)
	pipe.Expire(ctx, redisKeyUserSessions(uid), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return s.issueTokens(uid, sessionID)
}

func (s *authService) issueTokens(uid, sessionID string) (*AuthTokens, error) {
	access, err := s.paseto.IssueAccess(uid, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(uid, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthTokens{
		IDToken:      access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL() / time.Second),
	}, nil
}

func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	key := redisKeyLoginFailures(email)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		logs.FromContext(ctx).Warn("failed to record login failure", "error", err)
		return
	}
	// The window starts at the first failure.
	if n == 1 {
		s.rdb.Expire(ctx, key, s.cfg.Lockout)
	}
}
