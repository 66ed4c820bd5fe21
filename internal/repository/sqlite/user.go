package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/xid"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists accounts in the users table.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, full_name, email, country, account_type, art_field, username,
	bio, avatar, cover_image, password_hash, content_choice, created_at, updated_at`

var errDuplicateUser = apperror.ConflictMessage("User with email or username already exists")

// Create inserts user, assigning its ID and timestamps.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	choice, err := encodeChoice(user.ContentChoice)
	if err != nil {
		return err
	}

	t := now()
	user.ID = xid.New().String()
	user.CreatedAt = t
	user.UpdatedAt = t

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.FullName,
		user.Email,
		user.Country,
		string(user.AccountType),
		user.ArtField,
		user.Username,
		user.Bio,
		user.Avatar,
		user.CoverImage,
		user.Password,
		choice,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errDuplicateUser
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("User", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername looks up a user by the lower-cased username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User does not exist"}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by username %q: %w", username, err)
	}
	return u, nil
}

// Update writes every mutable column of user and bumps UpdatedAt.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	choice, err := encodeChoice(user.ContentChoice)
	if err != nil {
		return err
	}

	user.UpdatedAt = now()
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, country = ?, account_type = ?, art_field = ?,
		 bio = ?, avatar = ?, cover_image = ?, password_hash = ?, content_choice = ?, updated_at = ?
		 WHERE id = ?`,
		user.FullName,
		user.Email,
		user.Country,
		string(user.AccountType),
		user.ArtField,
		user.Bio,
		user.Avatar,
		user.CoverImage,
		user.Password,
		choice,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errDuplicateUser
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("User", user.ID)
	}
	return nil
}

// Delete removes the user. Foreign keys cascade to the session, content and
// every edge the user owns or is the subject of.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("User", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u           model.User
		accountType string
		choice      string
	)
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Country,
		&accountType,
		&u.ArtField,
		&u.Username,
		&u.Bio,
		&u.Avatar,
		&u.CoverImage,
		&u.Password,
		&choice,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.AccountType = model.AccountType(accountType)
	if err := json.Unmarshal([]byte(choice), &u.ContentChoice); err != nil {
		return nil, fmt.Errorf("decoding content_choice: %w", err)
	}
	return &u, nil
}

func encodeChoice(choice []string) (string, error) {
	if choice == nil {
		choice = []string{}
	}
	raw, err := json.Marshal(choice)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding content_choice: %w", err)
	}
	return string(raw), nil
}
