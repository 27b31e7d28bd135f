package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/daycare-hub/apiserver/internal/logging"
	"github.com/daycare-hub/apiserver/internal/store"
	"github.com/daycare-hub/apiserver/types"
)

// MsgInvalidCredentials is shared by every login failure so callers cannot
// tell an unknown email from a wrong password.
const MsgInvalidCredentials = "invalid email or password"

const (
	msgMissingRegisterFields = "name, email and password are required"
	msgMissingLoginFields    = "email and password are required"
	msgInvalidEmail          = "invalid email address"
	msgInvalidRole           = "invalid role"
	msgAdminKeyRequired      = "a valid admin key is required for this role"
	msgEmailTaken            = "email already registered"
	msgAccountNotFound       = "account not found"

	decoyPassword = "daycare-decoy-password"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	List(ctx context.Context, offset, limit int) ([]types.Account, int, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(subject string, role types.Role, email string) (string, error)
}

// EventPublisher announces account activity to other systems.
type EventPublisher interface {
	AccountRegistered(ctx context.Context, account types.Account) error
	LoginSucceeded(ctx context.Context, account types.Account) error
}

// AuthRecorder counts signup and login attempts by outcome.
type AuthRecorder interface {
	SignupAttempt(outcome string)
	LoginAttempt(outcome string)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	AdminKey string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is the account that authenticated plus its fresh token.
type AuthResult struct {
	Account types.Account
	Token   string
}

// AuthService implements registration, login and identity lookup.
type AuthService struct {
	repo     AccountRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	adminKey []byte
	events   EventPublisher
	recorder AuthRecorder

	decoyOnce sync.Once
	decoyHash string
}

type AuthOption func(*AuthService)

func WithEventPublisher(events EventPublisher) AuthOption {
	return func(s *AuthService) {
		s.events = events
	}
}

func WithAuthRecorder(recorder AuthRecorder) AuthOption {
	return func(s *AuthService) {
		s.recorder = recorder
	}
}

// NewAuthService wires the service. An empty adminKey disables privileged
// self-registration entirely.
func NewAuthService(repo AccountRepository, hasher PasswordHasher, issuer TokenIssuer, adminKey string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:     repo,
		hasher:   hasher,
		issuer:   issuer,
		adminKey: []byte(adminKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the request in a fixed order, creates the account and
// issues its first token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (result AuthResult, err error) {
	defer func() {
		if s.recorder != nil {
			s.recorder.SignupAttempt(Outcome(err))
		}
	}()

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return AuthResult{}, ValidationError(msgMissingRegisterFields)
	}
	if !emailPattern.MatchString(email) {
		return AuthResult{}, ValidationError(msgInvalidEmail)
	}

	role := types.RoleParent
	if strings.TrimSpace(in.Role) != "" {
		role, err = types.ParseRole(in.Role)
		if err != nil {
			return AuthResult{}, ValidationError(msgInvalidRole)
		}
	}
	if role.Privileged() && !s.adminKeyMatches(in.AdminKey) {
		return AuthResult{}, AuthorizationError(msgAdminKeyRequired)
	}

	email = types.NormalizeEmail(email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ConflictError(msgEmailTaken, nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, UnexpectedError("failed to check account", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return AuthResult{}, UnexpectedError("failed to create account", err)
	}

	account, err := s.repo.Create(ctx, types.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return AuthResult{}, ConflictError(msgEmailTaken, err)
		}
		return AuthResult{}, UnexpectedError("failed to create account", err)
	}

	token, err := s.issuer.Issue(account.ID, account.Role, account.Email)
	if err != nil {
		return AuthResult{}, UnexpectedError("failed to create token", err)
	}

	if s.events != nil {
		if err := s.events.AccountRegistered(ctx, account); err != nil {
			logging.FromContext(ctx).Warn("publish account event failed",
				"event", "account.registered", "account_id", account.ID, "error", err)
		}
	}

	return AuthResult{Account: account, Token: token}, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail with the same message and comparable latency.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (result AuthResult, err error) {
	defer func() {
		if s.recorder != nil {
			s.recorder.LoginAttempt(Outcome(err))
		}
	}()

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, ValidationError(msgMissingLoginFields)
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = s.hasher.Verify(ctx, in.Password, s.decoy(ctx))
			return AuthResult{}, AuthenticationError(MsgInvalidCredentials)
		}
		return AuthResult{}, UnexpectedError("failed to authenticate", err)
	}

	ok, err := s.hasher.Verify(ctx, in.Password, account.PasswordHash)
	if err != nil {
		return AuthResult{}, UnexpectedError("failed to authenticate", err)
	}
	if !ok {
		return AuthResult{}, AuthenticationError(MsgInvalidCredentials)
	}

	token, err := s.issuer.Issue(account.ID, account.Role, account.Email)
	if err != nil {
		return AuthResult{}, UnexpectedError("failed to create token", err)
	}

	if s.events != nil {
		if err := s.events.LoginSucceeded(ctx, account); err != nil {
			logging.FromContext(ctx).Warn("publish account event failed",
				"event", "account.login", "account_id", account.ID, "error", err)
		}
	}

	return AuthResult{Account: account, Token: token}, nil
}

// Account returns the account behind a verified token subject.
func (s *AuthService) Account(ctx context.Context, id string) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, NotFoundError(msgAccountNotFound, err)
		}
		return types.Account{}, UnexpectedError("failed to load account", err)
	}
	return account, nil
}

func (s *AuthService) adminKeyMatches(candidate string) bool {
	if len(s.adminKey) == 0 || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), s.adminKey) == 1
}

func (s *AuthService) decoy(ctx context.Context) string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), decoyPassword)
		if err != nil {
			logging.FromContext(ctx).Warn("decoy hash unavailable", "error", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}
