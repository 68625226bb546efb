package account

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/talkalot/internal/backend"
)

// Failure is a flow error with the message to show the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// MessageOf returns the user-facing text of err, or "" for nil.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}

type Service struct {
	auth      backend.Authenticator
	store     backend.ProfileStore
	validator *Validator
	now       func() time.Time
	log       *zap.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(auth backend.Authenticator, store backend.ProfileStore, opts ...Option) *Service {
	s := &Service{
		auth:  auth,
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = NewValidator(s.now)
	return s
}

func (s *Service) Login(ctx context.Context, email, password string) (backend.User, error) {
	u, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.log.Info("sign in failed", zap.String("code", string(backend.CodeOf(err))))
		return backend.User{}, &Failure{Message: LoginMessage(err), Err: err}
	}
	s.log.Info("user signed in", zap.String("user", u.ID))
	return u, nil
}

// ResetPassword returns the confirmation notice on success. An empty email
// fails without contacting the backend.
func (s *Service) ResetPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", &Failure{Message: MsgResetEmailRequired}
	}
	if err := s.auth.SendPasswordReset(ctx, email); err != nil {
		s.log.Info("password reset failed", zap.String("code", string(backend.CodeOf(err))))
		return "", &Failure{Message: ResetMessage(err), Err: err}
	}
	return MsgResetSent, nil
}

// Validate checks a signup form without creating anything.
func (s *Service) Validate(f SignupForm) error {
	if err := s.validator.Validate(f); err != nil {
		return &Failure{Message: MessageOf(err), Err: err}
	}
	return nil
}

// Signup validates f, creates the account and writes its profile document.
func (s *Service) Signup(ctx context.Context, f SignupForm) (backend.User, error) {
	if err := s.Validate(f); err != nil {
		return backend.User{}, err
	}

	now := s.now()
	dob := f.DateOfBirth
	if dob.IsZero() {
		dob = now
	}

	u, err := s.auth.CreateAccount(ctx, f.Email, f.Password)
	if err != nil {
		s.log.Info("create account failed", zap.String("code", string(backend.CodeOf(err))))
		return backend.User{}, &Failure{Message: SignupMessage(err), Err: err}
	}

	p := backend.Profile{
		Name:        f.Name,
		Email:       f.Email,
		DateOfBirth: dob.Format(DateLayout),
		CreatedAt:   now.UTC(),
	}
	if err := s.store.WriteUserProfile(ctx, u, p); err != nil {
		s.log.Warn("write profile failed", zap.String("user", u.ID), zap.Error(err))
		return u, &Failure{Message: MsgProfileNotSaved, Err: err}
	}
	s.log.Info("account created", zap.String("user", u.ID))
	return u, nil
}
