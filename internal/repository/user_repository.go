package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type User struct {
	ID                int64
	MessengerID       int64
	Username          string
	FirstName         string
	LastName          string
	PhoneNumber       sql.NullString
	AmoContactID      sql.NullInt64
	AmoDealID         sql.NullInt64
	IsAdmin           bool
	StartedTrainingAt sql.NullTime
	CreatedAt         time.Time
}

// Authorized reports whether the user is linked to an external CRM contact.
func (u *User) Authorized() bool {
	return u != nil && u.AmoContactID.Valid
}

const userColumns = `id, messenger_id, username, first_name, last_name, phone_number,
		amo_contact_id, amo_deal_id, is_admin, started_training_at, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.MessengerID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.AmoContactID,
		&user.AmoDealID,
		&user.IsAdmin,
		&user.StartedTrainingAt,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByMessengerID returns nil without error when the user does not exist.
func (r *UserRepository) GetByMessengerID(ctx context.Context, messengerID int64) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE messenger_id = $1
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, messengerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *User) error {
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (messenger_id, username, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.MessengerID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes the mutable profile and CRM link fields back.
func (r *UserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, phone_number = $4,
			amo_contact_id = $5, amo_deal_id = $6, started_training_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.AmoContactID,
		user.AmoDealID,
		user.StartedTrainingAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, messengerID int64, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_admin = $1 WHERE messenger_id = $2`,
		isAdmin, messengerID,
	)
	if err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, messengerID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE messenger_id = $1`, messengerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
