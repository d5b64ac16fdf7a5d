package services

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/moodlog/moodlog-be/internal/database"
	"github.com/moodlog/moodlog-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (int64, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	DeleteAccount(ctx context.Context, caller, target string) error
}

// UserService provides registration, login and account deletion.
type UserService struct {
	db  *sql.DB
	seq SequenceServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, seq SequenceServiceProvider) *UserService {
	return &UserService{db: db, seq: seq}
}

// Register creates a new user with a hashed password and a sequential id.
// Username is checked before email, so when both collide the username wins
// the conflict report. The UNIQUE indexes on the users table remain the real
// enforcement; a constraint violation on insert maps to the same errors.
func (s *UserService) Register(ctx context.Context, username, email, password string) (int64, error) {
	if username == "" || email == "" || password == "" {
		return 0, ErrValidation
	}

	if _, err := s.FindByUsername(ctx, username); err == nil {
		return 0, ErrUsernameTaken
	} else if err != ErrNotFound {
		return 0, err
	}
	if _, err := s.FindByEmail(ctx, email); err == nil {
		return 0, ErrEmailTaken
	} else if err != ErrNotFound {
		return 0, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.seq.Next(ctx, CounterUserID)
	if err != nil {
		return 0, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users(id, username, email, password_hash) VALUES(?, ?, ?, ?)",
		id, username, email, string(hashedPassword))
	if err != nil {
		if database.IsUniqueViolation(err, "users.username") {
			return 0, ErrUsernameTaken
		}
		if database.IsUniqueViolation(err, "users.email") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}

	return id, nil
}

// FindByUsername retrieves a single user by exact username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findBy(ctx, "username", username)
}

// FindByEmail retrieves a single user by exact email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findBy(ctx, "email", email)
}

func (s *UserService) findBy(ctx context.Context, column, value string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE "+column+" = ?", value)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate verifies a user's credentials. An unknown username and a wrong
// password both come back as ErrInvalidCredentials, so a caller cannot tell
// which usernames exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if err == ErrNotFound {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't hand the hash back to the caller
	user.PasswordHash = ""
	return user, nil
}

// DeleteAccount removes the target user and every entry they own. Only the
// account owner may delete it. Entries are deleted before the user record, so
// a crash mid-operation can never leave a user pointing at inconsistent data.
func (s *UserService) DeleteAccount(ctx context.Context, caller, target string) error {
	if _, err := s.FindByUsername(ctx, target); err != nil {
		return err // ErrNotFound or store failure
	}
	if caller != target {
		return ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE posted_by = ?", target); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username = ?", target); err != nil {
		return err
	}
	return tx.Commit()
}
