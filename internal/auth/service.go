package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/internal/shared"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// ServiceConfig groups the collaborators of Service.
type ServiceConfig struct {
	Repo     Repository
	Sessions *SessionStore
	Tokens   *TokenIssuer
	Notifier *Notifier
	Mailer   Mailer
	Audit    shared.AuditRecorder
	Logger   *slog.Logger
}

// Service is the password-based auth provider.
type Service struct {
	repo     Repository
	sessions *SessionStore
	tokens   *TokenIssuer
	notifier *Notifier
	mailer   Mailer
	audit    shared.AuditRecorder
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewNotifier(nil, logger)
	}
	return &Service{
		repo:     cfg.Repo,
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		notifier: notifier,
		mailer:   cfg.Mailer,
		audit:    cfg.Audit,
		logger:   logger,
	}
}

// GetSession returns the live session for key, or nil when signed out.
func (s *Service) GetSession(ctx context.Context, key string) (*Session, error) {
	session, err := s.sessions.Load(ctx, key)
	if err != nil || session == nil {
		return nil, err
	}
	if _, err := s.tokens.Verify(session.AccessToken); err != nil {
		if delErr := s.sessions.Delete(ctx, key); delErr != nil {
			s.logger.Warn("drop expired session", slog.Any("error", delErr))
		}
		return nil, nil
	}
	return session, nil
}

// SignInWithPassword checks credentials and starts a session for key.
func (s *Service) SignInWithPassword(ctx context.Context, key, email, password string) (*Session, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	identity := Identity{ID: user.ID, Email: user.Email}
	token, expires, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	session := &Session{AccessToken: token, ExpiresAt: expires, User: identity}
	if err := s.sessions.Save(ctx, key, session); err != nil {
		return nil, err
	}
	if err := s.notifier.Publish(ctx, key, EventSignedIn, session); err != nil {
		s.logger.Warn("publish sign in", slog.Any("error", err))
	}
	s.record(ctx, shared.AuditLog{ActorID: user.ID, Action: shared.AuditSignIn, Entity: "user", EntityID: user.ID})
	return session.Clone(), nil
}

// SignUp registers an unconfirmed account and mails a verification link
// rooted at redirectTo. Signing up again with the same password while the
// account is still unconfirmed re-sends the link, so a failed delivery can
// be retried.
func (s *Service) SignUp(ctx context.Context, email, password, redirectTo string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, NewAccount{Email: email, PasswordHash: string(hash), Role: profiles.RoleUser})
	if errors.Is(err, ErrEmailTaken) {
		user, err = s.pendingAccount(ctx, email, password)
		if err != nil {
			return err
		}
		s.logger.Info("re-sending verification", slog.String("user_id", user.ID))
		return s.sendVerification(ctx, user, redirectTo)
	}
	if err != nil {
		return err
	}
	s.record(ctx, shared.AuditLog{ActorID: user.ID, Action: shared.AuditSignUp, Entity: "user", EntityID: user.ID})
	return s.sendVerification(ctx, user, redirectTo)
}

// pendingAccount returns the unconfirmed account registered under email
// when password matches it. Every other case is ErrEmailTaken.
func (s *Service) pendingAccount(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if user.Confirmed() {
		return nil, ErrEmailTaken
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrEmailTaken
	}
	return user, nil
}

func (s *Service) sendVerification(ctx context.Context, user *User, redirectTo string) error {
	token, err := s.sessions.IssueVerification(ctx, user.ID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	link := verificationLink(redirectTo, token)
	body := "Confirm your SurveyHub account by opening the link below.\n\n" + link + "\n"
	if err := s.mailer.SendMail(ctx, user.Email, "Confirm your SurveyHub account", body); err != nil {
		return fmt.Errorf("auth: send verification: %w", err)
	}
	return nil
}

// Verify confirms the account behind a verification token.
func (s *Service) Verify(ctx context.Context, token string) error {
	userID, err := s.sessions.ConsumeVerification(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.ConfirmUser(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	s.record(ctx, shared.AuditLog{ActorID: userID, Action: shared.AuditVerify, Entity: "user", EntityID: userID})
	return nil
}

// SignOut ends the session for key and notifies listeners with a nil session.
func (s *Service) SignOut(ctx context.Context, key string) error {
	previous, err := s.sessions.Load(ctx, key)
	if err != nil {
		s.logger.Warn("load session on sign out", slog.Any("error", err))
	}
	if err := s.sessions.Delete(ctx, key); err != nil {
		return err
	}
	if err := s.notifier.Publish(ctx, key, EventSignedOut, nil); err != nil {
		s.logger.Warn("publish sign out", slog.Any("error", err))
	}
	if previous != nil {
		s.record(ctx, shared.AuditLog{ActorID: previous.User.ID, Action: shared.AuditSignOut, Entity: "user", EntityID: previous.User.ID})
	}
	return nil
}

// OnAuthStateChange subscribes fn to changes for key.
func (s *Service) OnAuthStateChange(key string, fn Listener) Subscription {
	return s.notifier.Subscribe(key, fn)
}

// CreateConfirmedUser registers an account that can sign in immediately.
func (s *Service) CreateConfirmedUser(ctx context.Context, email, password string, role profiles.Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, NewAccount{Email: email, PasswordHash: string(hash), Role: role, Confirmed: true})
}

// FindUser looks a user up by email.
func (s *Service) FindUser(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *Service) record(ctx context.Context, entry shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.String("action", entry.Action), slog.Any("error", err))
	}
}

func verificationLink(redirectTo, token string) string {
	return strings.TrimRight(redirectTo, "/") + "/auth/verify?token=" + url.QueryEscape(token)
}

var _ Provider = (*Service)(nil)
