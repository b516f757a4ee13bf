package webmail

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/emailapp/webmail/store"
)

// RegisterRequest contains signup data.
type RegisterRequest struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
}

// Register creates a new account.
//
// Username and email collisions are reported as distinct conflict errors
// so the caller can tell the user which field to change. The store's
// unique constraints remain the source of truth; the pre-checks only
// improve the error message.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return nil, ErrNotConnected
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < s.opts.minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters",
			ErrInvalidArgument, s.opts.minPasswordLength)
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !store.IsNotFound(err) {
		return nil, wrapStoreError(err)
	}
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !store.IsNotFound(err) {
		return nil, wrapStoreError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	user, err := s.store.CreateUser(ctx, store.UserData{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	// Never hand the hash back to callers.
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a username/password pair.
//
// Unknown username and wrong password both return ErrInvalidCredentials
// so the response does not reveal which accounts exist.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return nil, ErrNotConnected
	}

	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, wrapStoreError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUser retrieves an account by ID.
func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return nil, ErrNotConnected
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUserByEmail retrieves an account by email address.
func (s *service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return nil, ErrNotConnected
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, wrapStoreError(err)
	}

	user.PasswordHash = ""
	return user, nil
}
