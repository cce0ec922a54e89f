// ABOUTME: Email/password accounts with bcrypt and HS256 session tokens.
// ABOUTME: Tokens travel in an HttpOnly cookie or an Authorization bearer header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SessionTTL is how long a session token stays valid.
	SessionTTL = 30 * 24 * time.Hour
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// MaxPasswordBytes is the most bcrypt will hash.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	ErrEmailTaken         = storage.ErrDuplicateEmail
	ErrMissingSecret      = errors.New("JWT secret is not configured")
)

// Claims is the session token payload.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// UserStore is the subset of storage the manager needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Manager registers users, checks passwords, and issues session tokens.
type Manager struct {
	secret []byte
	users  UserStore
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewManager returns a Manager signing tokens with secret.
func NewManager(secret string, users UserStore) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Manager{
		secret: []byte(secret),
		users:  users,
		ttl:    SessionTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source for issuing and validating tokens.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// SetHashCost overrides the bcrypt cost.
func (m *Manager) SetHashCost(cost int) {
	m.cost = cost
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Register creates an account and returns it.
func (m *Manager) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := models.NewUser(email, displayName, string(hash))
	if err := m.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SignIn checks the password for email and returns the account.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if len(password) > MaxPasswordBytes {
		return nil, ErrInvalidCredentials
	}
	u, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// User loads the account behind a session.
func (m *Manager) User(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := m.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// IssueToken signs a session token for userID and returns it with its expiry.
func (m *Manager) IssueToken(userID string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, expires, nil
}

// ParseToken validates a session token and returns its claims.
func (m *Manager) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
