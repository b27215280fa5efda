package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/ecostore/internal/domain"
	"github.com/jafarshop/ecostore/internal/remote"
	"github.com/jafarshop/ecostore/internal/storage"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

const minPasswordLength = 6

// Remote is the account part of the store API
type Remote interface {
	Login(ctx context.Context, email, password string) (*remote.AuthResult, error)
	Register(ctx context.Context, name, email, password string) (*remote.AuthResult, error)
	Profile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, profile domain.UserProfile) error
	SubscribeNewsletter(ctx context.Context, email string) error
}

// Session is the locally stored login state of the single user
type Session struct {
	LoggedIn bool
	Email    string
	Name     string
	UserID   int64
}

// RegisterInput is the registration form
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Confirm  string
}

// Service manages the profile, login state and newsletter subscriptions
type Service struct {
	mu      sync.RWMutex
	session Session
	profile domain.UserProfile

	remote        Remote
	store         storage.Store
	defaultUserID int64
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates a new account service. defaultUserID is used for remote
// calls until a login assigns another id.
func NewService(r Remote, store storage.Store, defaultUserID int64, logger *zap.Logger) *Service {
	return &Service{
		profile:       domain.DefaultProfile(),
		remote:        r,
		store:         store,
		defaultUserID: defaultUserID,
		now:           time.Now,
		logger:        logger,
	}
}

// Restore reads the session flags and the cached profile
func (s *Service) Restore(ctx context.Context) {
	var session Session
	s.get(ctx, storage.KeyUserLoggedIn, &session.LoggedIn)
	s.get(ctx, storage.KeyUserEmail, &session.Email)
	s.get(ctx, storage.KeyUserName, &session.Name)
	s.get(ctx, storage.KeyUserID, &session.UserID)

	profile := domain.DefaultProfile()
	s.get(ctx, storage.KeyUserProfile, &profile)

	s.mu.Lock()
	s.session = session
	s.profile = profile
	s.mu.Unlock()
}

// Session returns the current login state
func (s *Service) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// UserID returns the id used for remote calls
func (s *Service) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.UserID != 0 {
		return s.session.UserID
	}
	return s.defaultUserID
}

// Login signs the user in. When the API is unreachable the password is
// checked against the locally kept hash, or only for length when there is
// none. It reports whether the offline path was taken.
func (s *Service) Login(ctx context.Context, email, password string) (Session, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, false, &apperrors.ErrValidation{Step: "login", Message: "Please fill in all fields"}
	}

	result, err := s.remote.Login(ctx, email, password)
	if err == nil {
		name := result.Name
		if name == "" {
			name = localPart(email)
		}
		session := s.startSession(ctx, email, name, s.idOrDefault(result.UserID))
		s.rememberPassword(ctx, email, password)
		return session, false, nil
	}
	if statusErr, rejected := remote.IsRejected(err); rejected {
		msg := statusErr.Message
		if msg == "" {
			msg = "Invalid email or password"
		}
		return Session{}, false, &apperrors.ErrUnauthorized{Message: msg}
	}
	if !apperrors.IsRemoteUnavailable(err) {
		return Session{}, false, err
	}

	if !s.checkOffline(ctx, email, password) {
		return Session{}, true, &apperrors.ErrUnauthorized{Message: "Invalid email or password"}
	}
	s.logger.Info("Offline login", zap.String("email", email))
	session := s.startSession(ctx, email, localPart(email), s.now().UnixMilli())
	return session, true, nil
}

// Register creates the account. When the API is unreachable the account is
// created locally.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, bool, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	invalid := func(field, msg string) error {
		return &apperrors.ErrValidation{Step: "register", Field: field, Message: msg}
	}
	switch {
	case name == "" || email == "" || in.Password == "" || in.Confirm == "":
		return Session{}, false, invalid("", "Please fill in all fields")
	case !domain.ValidEmail(email):
		return Session{}, false, invalid("register-email", "Please enter a valid email")
	case len(in.Password) < minPasswordLength:
		return Session{}, false, invalid("register-password", "Password must be at least 6 characters")
	case in.Password != in.Confirm:
		return Session{}, false, invalid("register-confirm", "Passwords do not match")
	}

	result, err := s.remote.Register(ctx, name, email, in.Password)
	if err == nil {
		session := s.startSession(ctx, email, name, s.idOrDefault(result.UserID))
		s.rememberPassword(ctx, email, in.Password)
		return session, false, nil
	}
	if statusErr, rejected := remote.IsRejected(err); rejected {
		msg := statusErr.Message
		if msg == "" {
			msg = "Registration failed"
		}
		return Session{}, false, invalid("", msg)
	}
	if !apperrors.IsRemoteUnavailable(err) {
		return Session{}, false, err
	}

	s.logger.Info("Offline registration", zap.String("email", email))
	session := s.startSession(ctx, email, name, s.now().UnixMilli())
	s.rememberPassword(ctx, email, in.Password)
	return session, true, nil
}

// Logout clears the login flags. The user id is kept for remote calls.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.session.LoggedIn = false
	s.session.Email = ""
	s.session.Name = ""
	s.mu.Unlock()

	for _, key := range []string{storage.KeyUserLoggedIn, storage.KeyUserEmail, storage.KeyUserName} {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to clear session key", zap.String("key", key), zap.Error(err))
		}
	}
}

// LoadProfile fetches the profile and caches it. On failure the restored
// profile stays in place and the error is returned.
func (s *Service) LoadProfile(ctx context.Context) error {
	profile, err := s.remote.Profile(ctx, s.UserID())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = *profile
	s.mu.Unlock()
	s.set(ctx, storage.KeyUserProfile, profile)
	return nil
}

// Profile returns the current profile
func (s *Service) Profile() domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// UpdateProfile validates and stores name, email and phone. The bonus
// balance is not user-editable. It reports whether the change was only
// saved locally.
func (s *Service) UpdateProfile(ctx context.Context, name, email, phone string) (bool, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return false, &apperrors.ErrValidation{Step: "profile", Message: "Name and email are required"}
	}
	if !domain.ValidEmail(email) {
		return false, &apperrors.ErrValidation{Step: "profile", Field: "profile-email", Message: "Please enter a valid email"}
	}

	s.mu.Lock()
	s.profile.Name = name
	s.profile.Email = email
	s.profile.Phone = strings.TrimSpace(phone)
	profile := s.profile
	s.mu.Unlock()
	s.set(ctx, storage.KeyUserProfile, profile)

	if err := s.remote.UpdateProfile(ctx, s.UserID(), profile); err != nil {
		if apperrors.IsRemoteUnavailable(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// Subscribe adds an email to the newsletter. The address is kept locally
// whatever the remote outcome; it reports whether the API was unreachable.
func (s *Service) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if !domain.ValidEmail(email) {
		return false, &apperrors.ErrValidation{Step: "newsletter", Field: "newsletter-email", Message: "Please enter a valid email"}
	}

	offline := false
	if err := s.remote.SubscribeNewsletter(ctx, email); err != nil {
		if !apperrors.IsRemoteUnavailable(err) {
			return false, err
		}
		offline = true
	}

	subs := s.Subscriptions(ctx)
	for _, existing := range subs {
		if existing == email {
			return offline, nil
		}
	}
	s.set(ctx, storage.KeyNewsletterSubscriptions, append(subs, email))
	return offline, nil
}

// Subscriptions returns the locally kept newsletter addresses
func (s *Service) Subscriptions(ctx context.Context) []string {
	var subs []string
	s.get(ctx, storage.KeyNewsletterSubscriptions, &subs)
	return subs
}

func (s *Service) startSession(ctx context.Context, email, name string, userID int64) Session {
	session := Session{LoggedIn: true, Email: email, Name: name, UserID: userID}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.set(ctx, storage.KeyUserLoggedIn, true)
	s.set(ctx, storage.KeyUserEmail, email)
	s.set(ctx, storage.KeyUserName, name)
	s.set(ctx, storage.KeyUserID, userID)
	return session
}

func (s *Service) idOrDefault(id int64) int64 {
	if id != 0 {
		return id
	}
	return s.defaultUserID
}

func (s *Service) rememberPassword(ctx context.Context, email, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Warn("Failed to hash password", zap.Error(err))
		return
	}
	creds := s.credentials(ctx)
	creds[strings.ToLower(email)] = string(hash)
	s.set(ctx, storage.KeyUserCredentials, creds)
}

func (s *Service) checkOffline(ctx context.Context, email, password string) bool {
	hash, ok := s.credentials(ctx)[strings.ToLower(email)]
	if !ok {
		return len(password) >= minPasswordLength
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) credentials(ctx context.Context) map[string]string {
	creds := make(map[string]string)
	s.get(ctx, storage.KeyUserCredentials, &creds)
	if creds == nil {
		creds = make(map[string]string)
	}
	return creds
}

func (s *Service) get(ctx context.Context, key string, v interface{}) {
	if _, err := s.store.Get(ctx, key, v); err != nil {
		s.logger.Warn("Failed to read stored value", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) set(ctx context.Context, key string, v interface{}) {
	if err := s.store.Set(ctx, key, v); err != nil {
		s.logger.Warn("Failed to store value", zap.String("key", key), zap.Error(err))
	}
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
