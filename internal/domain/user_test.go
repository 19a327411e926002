package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("Ada Lovelace", "Ada@Example.COM", "correct-horse", 36)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.Equal(t, 36, user.Age)
		assert.Equal(t, "ada@example.com", user.Email, "email should be lowercased")
		assert.Equal(t, "correct-horse", user.Password)
		assert.Empty(t, user.HashedPassword)
		assert.False(t, user.CreatedAt.IsZero())
		assert.False(t, user.UpdatedAt.IsZero())
	})

	t.Run("trims name and email", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("  Grace  ", "  GRACE@navy.mil ", "enigma1!", 0)
		require.NoError(t, err)
		assert.Equal(t, "Grace", user.Name)
		assert.Equal(t, "grace@navy.mil", user.Email)
	})

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		age      int
		wantErr  error
	}{
		{"empty name", "", "a@b.co", "longenough", 1, ErrEmptyName},
		{"negative age", "Bob", "a@b.co", "longenough", -1, ErrNegativeAge},
		{"empty email", "Bob", "", "longenough", 1, ErrEmptyEmail},
		{"email without at", "Bob", "not-an-email", "longenough", 1, ErrInvalidEmail},
		{"email without domain dot", "Bob", "bob@localhost", "longenough", 1, ErrInvalidEmail},
		{"empty password", "Bob", "a@b.co", "", 1, ErrEmptyPassword},
		{"short password", "Bob", "a@b.co", "sixchr", 1, ErrPasswordTooShort},
		{"forbidden password", "Bob", "a@b.co", "myPassWord1", 1, ErrPasswordForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewUser(tc.userName, tc.email, tc.password, tc.age)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user@example.com", NormalizeEmail("  USER@Example.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "s3cure-enough", nil},
		{"exactly seven chars", "abcdefg", nil},
		{"empty", "", ErrEmptyPassword},
		{"six chars", "abcdef", ErrPasswordTooShort},
		{"over bcrypt limit", strings.Repeat("x", 73), ErrPasswordTooLong},
		{"contains password lowercase", "mypassword123", ErrPasswordForbidden},
		{"contains password mixed case", "XYPaSsWoRdXY", ErrPasswordForbidden},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidatePassword(tc.password)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	t.Run("stored user with hash only", func(t *testing.T) {
		t.Parallel()

		user := &User{
			ID:             uuid.New(),
			Name:           "Stored",
			Email:          "stored@example.com",
			HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
		}
		assert.NoError(t, user.Validate())
	})

	t.Run("no password and no hash", func(t *testing.T) {
		t.Parallel()

		user := &User{
			ID:    uuid.New(),
			Name:  "Nobody",
			Email: "nobody@example.com",
		}
		assert.ErrorIs(t, user.Validate(), ErrEmptyPassword)
	})

	t.Run("nil ID", func(t *testing.T) {
		t.Parallel()

		user := &User{Name: "X", Email: "x@example.com", HashedPassword: "h"}
		assert.ErrorIs(t, user.Validate(), ErrEmptyUserID)
	})
}
