package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = bcrypt.DefaultCost

// StructValidator checks tagged input structs. Failures wrap domain.ErrValidation.
type StructValidator interface {
	Struct(i any) error
}

// dummyHash is compared against when a login names an unknown user, so that
// both failure paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("localkart-unknown-user"), PasswordCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return h
})

// AuthService implements registration, login and identity lookup.
type AuthService struct {
	repo     ports.UserRepository
	tokens   ports.TokenIssuer
	validate StructValidator
	events   ports.EventSink
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the credential service. events may be nil.
func NewAuthService(
	repo ports.UserRepository,
	tokens ports.TokenIssuer,
	validate StructValidator,
	events ports.EventSink,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		validate: validate,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DOB = strings.TrimSpace(in.DOB)
	in.Role = strings.TrimSpace(in.Role)

	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	dob, err := ParseDOB(in.DOB)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		DOB:          dob,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	s.emit(domain.Event{
		Type:       domain.EventUserRegistered,
		Key:        created.ID,
		OccurredAt: now,
		RequestID:  in.RequestID,
		Payload: map[string]any{
			"user_id":  created.ID,
			"username": created.Username,
			"role":     created.Role,
		},
	})

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login checks credentials and returns a fresh session token. An unknown
// username and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("login: issue token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	return user, nil
}

func (s *AuthService) emit(e domain.Event) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(e)
}

// ParseDOB accepts a calendar date (2006-01-02) or a full RFC 3339 timestamp.
func ParseDOB(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: dob must be a date in YYYY-MM-DD format", domain.ErrValidation)
}

// EnsureAdmin inserts the bootstrap administrator once. It does nothing when
// the seed has no credentials or the email is already registered.
func EnsureAdmin(ctx context.Context, repo ports.UserRepository, seed ports.AdminSeed, log zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		log.Debug().Msg("admin seed not configured, skipping")
		return nil
	}

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		log.Debug().Str("email", email).Msg("admin already present")
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: lookup: %w", err)
	}

	username := strings.TrimSpace(seed.Username)
	if username == "" {
		username = "admin"
	}
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Administrator"
	}
	var dob time.Time
	if seed.DOB != "" {
		parsed, err := ParseDOB(strings.TrimSpace(seed.DOB))
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		dob = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), PasswordCost)
	if err != nil {
		return fmt.Errorf("ensure admin: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := repo.Create(ctx, &domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		DOB:          dob,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Another instance won the race.
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("ensure admin: create: %w", err)
	}

	log.Info().Str("user_id", created.ID).Str("email", email).Msg("admin user created")
	return nil
}
