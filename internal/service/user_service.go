// Package service contains the business operations that sit between the
// HTTP handlers and the stores.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// UserService provides account lifecycle and session operations.
type UserService interface {
	// Register creates a new account and issues its first bearer token.
	// Returns store.ErrEmailExists for a duplicate email and domain
	// validation errors for malformed input.
	Register(ctx context.Context, name, email, password string, age int) (*domain.User, string, error)

	// Login authenticates by email and password and issues a new bearer
	// token. Fails with ErrUnableToLogin when the email is unknown or the
	// password is wrong, without distinguishing the two.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// Logout revokes a single bearer token (the presented one).
	Logout(ctx context.Context, userID uuid.UUID, token string) error

	// LogoutAll revokes every bearer token the user holds.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateUser applies the given field changes to the user and persists
	// them. A non-nil Password goes through the store's hashing step.
	UpdateUser(ctx context.Context, userID uuid.UUID, changes UserChanges) (*domain.User, error)

	// DeleteUser removes the account with a cascading delete: all owned
	// tasks, then all tokens, then the user row, inside one transaction.
	// Returns the deleted user's record.
	DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserChanges carries the optional field updates for UpdateUser.
// Nil fields are left unchanged.
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	db         *sql.DB
	userStore  store.UserStore
	taskStore  store.TaskStore
	jwtService auth.JWTService
	verifier   auth.PasswordVerifier
	logger     *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	db *sql.DB,
	userStore store.UserStore,
	taskStore store.TaskStore,
	jwtService auth.JWTService,
	verifier auth.PasswordVerifier,
	log *slog.Logger,
) *UserServiceImpl {
	if log == nil {
		log = slog.Default()
	}
	return &UserServiceImpl{
		db:         db,
		userStore:  userStore,
		taskStore:  taskStore,
		jwtService: jwtService,
		verifier:   verifier,
		logger:     log.With(slog.String("component", "user_service")),
	}
}

// Ensure UserServiceImpl implements UserService interface
var _ UserService = (*UserServiceImpl)(nil)

// Register creates the account and its first session token. The user row
// and the token row are written in one transaction so a signup never
// succeeds without a usable token.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	name, email, password string,
	age int,
) (*domain.User, string, error) {
	user, err := domain.NewUser(name, email, password, age)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token during registration",
			"error", err,
			"user_id", user.ID)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		if err := txStore.Create(ctx, user); err != nil {
			return err
		}
		return txStore.AddToken(ctx, user.ID, token)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to register with existing email")
		} else {
			s.logger.Error("failed to register user", "error", err)
		}
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login implements UserService.Login
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same failure as a wrong password; do not reveal which.
			return nil, "", ErrUnableToLogin
		}
		s.logger.Error("failed to look up user during login", "error", err)
		return nil, "", err
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		return nil, "", ErrUnableToLogin
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to generate token during login",
			"error", err,
			"user_id", user.ID)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.userStore.AddToken(ctx, user.ID, token); err != nil {
		s.logger.Error("failed to persist token during login",
			"error", err,
			"user_id", user.ID)
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Logout implements UserService.Logout
func (s *UserServiceImpl) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.userStore.RemoveToken(ctx, userID, token); err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			// The session is already gone; logout is idempotent.
			return nil
		}
		s.logger.Error("failed to revoke token", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// LogoutAll implements UserService.LogoutAll
func (s *UserServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.userStore.RemoveAllTokens(ctx, userID); err != nil {
		s.logger.Error("failed to revoke all tokens", "error", err, "user_id", userID)
		return err
	}
	s.logger.Info("all sessions revoked", "user_id", userID)
	return nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user", "error", err, "user_id", userID)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser implements UserService.UpdateUser
// It follows the read-modify-write pattern: load the full user, apply the
// requested changes, and hand the complete object back to the store. A new
// password travels as plaintext on the Password field and is hashed by the
// store's write path; all other saves leave the stored hash untouched.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	userID uuid.UUID,
	changes UserChanges,
) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		user.Name = strings.TrimSpace(*changes.Name)
	}
	if changes.Email != nil {
		user.Email = domain.NormalizeEmail(*changes.Email)
	}
	if changes.Age != nil {
		user.Age = *changes.Age
	}
	if changes.Password != nil {
		user.Password = *changes.Password
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to update to existing email", "user_id", userID)
		} else if !errors.Is(err, domain.ErrValidation) {
			s.logger.Error("failed to update user", "error", err, "user_id", userID)
		}
		return nil, err
	}

	return user, nil
}

// DeleteUser implements UserService.DeleteUser
// Tasks are deleted before the user row so no failure ordering can leave
// orphaned tasks behind; the surrounding transaction makes the whole
// cascade atomic.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		taskCount, err := s.taskStore.WithTx(tx).DeleteByOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete owned tasks: %w", err)
		}

		txUsers := s.userStore.WithTx(tx)
		if err := txUsers.RemoveAllTokens(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete tokens: %w", err)
		}
		if err := txUsers.Delete(ctx, userID); err != nil {
			return err
		}

		s.logger.Info("user deleted with cascade",
			"user_id", userID,
			"tasks_deleted", taskCount)
		return nil
	})
	if err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", userID)
		return nil, err
	}

	return user, nil
}
