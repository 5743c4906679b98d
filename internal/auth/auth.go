// Package auth manages the single admin account guarding the dashboard.
//
// The account lives in a small JSON file next to the config document. Sessions
// are stateless HS256 tokens carried in an httpOnly cookie or a Bearer header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/utils"
)

const (
	DefaultFileName = "user.json"
	DefaultTokenTTL = 30 * 24 * time.Hour
	BcryptCost      = 12
)

var (
	ErrAlreadySetUp       = errors.New("an admin account already exists")
	ErrSetupRequired      = errors.New("no admin account exists yet")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
)

// Profile is the public part of the account.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// State answers "who is calling" for the frontend bootstrap.
type State struct {
	Authenticated bool     `json:"authenticated"`
	SetupRequired bool     `json:"setupRequired"`
	User          *Profile `json:"user"`
}

type account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` // bcrypt hash
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service owns the account file and issues session tokens.
type Service struct {
	path   string
	secret []byte
	ttl    time.Duration
	cost   int
	logger logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New returns a Service storing the account at path. secret must be non-empty.
func New(path string, secret []byte, ttl time.Duration, log logger.Logger) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		path:   path,
		secret: secret,
		ttl:    ttl,
		cost:   BcryptCost,
		logger: log,
		now:    time.Now,
	}, nil
}

// TokenTTL is the lifetime of issued tokens, used for the cookie max-age.
func (s *Service) TokenTTL() time.Duration { return s.ttl }

// State reports whether setup is pending and whether token is a valid session.
// An invalid token is not an error, it yields an unauthenticated state.
func (s *Service) State(ctx context.Context, token string) (State, error) {
	acc, err := s.load()
	if err != nil {
		return State{}, err
	}
	if acc == nil {
		return State{SetupRequired: true}, nil
	}
	if token == "" {
		return State{}, nil
	}

	profile, err := s.verify(acc, token)
	if err != nil {
		s.logger.Debug("session rejected", logger.Error(err))
		return State{}, nil
	}
	return State{Authenticated: true, User: &profile}, nil
}

// Setup creates the admin account. It fails once an account exists.
func (s *Service) Setup(ctx context.Context, name, email, password string) (Profile, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return Profile{}, "", err
	}
	if existing != nil {
		return Profile{}, "", ErrAlreadySetUp
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Profile{}, "", fmt.Errorf("hash password: %w", err)
	}
	acc := &account{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: string(hash),
	}
	if err := s.save(acc); err != nil {
		return Profile{}, "", err
	}

	token, err := s.issue(acc)
	if err != nil {
		return Profile{}, "", err
	}
	s.logger.Info("admin account created", logger.String("email", acc.Email))
	return acc.profile(), token, nil
}

// Login checks the credentials and returns a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (Profile, string, error) {
	acc, err := s.load()
	if err != nil {
		return Profile{}, "", err
	}
	if acc == nil {
		return Profile{}, "", ErrSetupRequired
	}

	emailOK := strings.EqualFold(strings.TrimSpace(email), acc.Email)
	passOK := bcrypt.CompareHashAndPassword([]byte(acc.Password), []byte(password)) == nil
	if !emailOK || !passOK {
		return Profile{}, "", ErrInvalidCredentials
	}

	token, err := s.issue(acc)
	if err != nil {
		return Profile{}, "", err
	}
	return acc.profile(), token, nil
}

// Verify validates a session token against the current account.
func (s *Service) Verify(ctx context.Context, token string) (Profile, error) {
	acc, err := s.load()
	if err != nil {
		return Profile{}, err
	}
	if acc == nil {
		return Profile{}, ErrSetupRequired
	}
	return s.verify(acc, token)
}

func (s *Service) verify(acc *account, token string) (Profile, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || !strings.EqualFold(c.Email, acc.Email) {
		return Profile{}, ErrInvalidToken
	}
	return acc.profile(), nil
}

func (s *Service) issue(acc *account) (string, error) {
	now := s.now()
	c := &claims{
		Email: acc.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// load returns nil when no account file exists. An unreadable or corrupt file
// is an error so a broken install never silently reopens setup.
func (s *Service) load() (*account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read account: %w", err)
	}

	var acc account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if acc.Email == "" || acc.Password == "" {
		return nil, nil
	}
	return &acc, nil
}

func (s *Service) save(acc *account) error {
	data, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write account: %w", err)
	}
	return nil
}

func (a *account) profile() Profile {
	return Profile{Name: a.Name, Email: a.Email}
}
