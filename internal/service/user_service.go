package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"invexqr/internal/model"
	"invexqr/internal/repository"
	"invexqr/internal/util"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Get(ctx context.Context, id string) (*model.User, error)
	ResolveIdentity(ctx context.Context, provider, subject string, email *string) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo   repository.UserRepository
	email      EmailService
	jwtSecret  string
	jwtIssuer  string
	sessionTTL time.Duration
	userLogger zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, email EmailService, jwtSecret, jwtIssuer string, sessionTTL time.Duration, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		email:      email,
		jwtSecret:  jwtSecret,
		jwtIssuer:  jwtIssuer,
		sessionTTL: sessionTTL,
		userLogger: logger.With().Str("service", "UserService").Logger(),
	}
}

// Register creates a platform-native account and returns a signed session
// token. The welcome email is best-effort.
func (s *userService) Register(ctx context.Context, email, password, firstName, lastName string) (*model.User, string, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailAlreadyRegistered
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u := &model.User{
		Email:        &email,
		PasswordHash: &hash,
	}
	if firstName != "" {
		u.FirstName = &firstName
	}
	if lastName != "" {
		u.LastName = &lastName
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := util.IssueSessionToken(s.jwtSecret, s.jwtIssuer, u.ID, email, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	if err := s.email.SendWelcomeEmail(email, firstName); err != nil && !errors.Is(err, ErrEmailDisabled) {
		s.userLogger.Warn().Err(err).Str("user_id", u.ID).Msg("Failed to send welcome email")
	}

	return u, token, nil
}

// Login verifies a platform-native credential pair and issues a session token.
// Missing users and bad passwords are indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || u.PasswordHash == nil || !util.CheckPasswordHash(password, *u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.IssueSessionToken(s.jwtSecret, s.jwtIssuer, u.ID, email, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) ResolveIdentity(ctx context.Context, provider, subject string, email *string) (*model.User, error) {
	return s.userRepo.ResolveIdentity(ctx, provider, subject, email)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return s.userRepo.DeleteUser(ctx, id)
}
