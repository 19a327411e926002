package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
//
// Implementations own the password hashing step: whenever a user is written
// with a non-empty plaintext Password, the store hashes it into
// HashedPassword exactly once before persistence. Writes with an empty
// Password leave the stored hash untouched, so repeated saves never rehash.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	// Returns validation errors from the domain User if data is invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user carries neither the plaintext password nor the avatar.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address. The email is
	// normalized before lookup. Returns ErrUserNotFound if no user matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user's details. The caller provides a
	// complete user object; if a plaintext Password is set it is hashed and
	// replaces the stored hash. Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user row by ID. It does not touch tasks or tokens;
	// the cascading delete is orchestrated by the user service inside a
	// transaction. Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddToken appends a bearer token to the user's active token list.
	AddToken(ctx context.Context, userID uuid.UUID, token string) error

	// RemoveToken removes a single token from the user's active token list,
	// logging out that session only. Returns ErrTokenNotFound if the token
	// is not in the list.
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error

	// RemoveAllTokens clears the user's token list (logout everywhere).
	RemoveAllTokens(ctx context.Context, userID uuid.UUID) error

	// HasToken reports whether the token is in the user's active token
	// list. A structurally valid but revoked token must report false.
	HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error)

	// UpdateAvatar stores the raw avatar bytes for the user. A nil slice
	// clears the avatar. Returns ErrUserNotFound if the user does not exist.
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatar []byte) error

	// GetAvatar returns the stored avatar bytes.
	// Returns ErrAvatarNotFound if the user has no avatar, and
	// ErrUserNotFound if the user does not exist.
	GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error)

	// WithTx returns a UserStore bound to the provided transaction so that
	// multiple operations can run atomically. The transaction is created
	// and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
