package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `
	user_id, name, email, contact_number,
	address_house, address_street, address_city, address_state, address_pincode,
	password, role, created_at
`

// Create stores a new user and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (
			name, email, contact_number,
			address_house, address_street, address_city, address_state, address_pincode,
			password, role
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING user_id, created_at
	`

	return r.pool.QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.ContactNumber,
		u.AddressHouse,
		u.AddressStreet,
		u.AddressCity,
		u.AddressState,
		u.AddressPincode,
		u.PasswordHash,
		u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}

// GetByID returns one user by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail returns one user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// UpdateProfile replaces a user's editable profile fields.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	query := `
		UPDATE users
		SET name = $1,
			contact_number = $2,
			address_house = $3,
			address_street = $4,
			address_city = $5,
			address_state = $6,
			address_pincode = $7
		WHERE user_id = $8
	`

	tag, err := r.pool.Exec(ctx, query,
		update.Name,
		update.ContactNumber,
		update.AddressHouse,
		update.AddressStreet,
		update.AddressCity,
		update.AddressState,
		update.AddressPincode,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListAdminIDs returns the IDs of all administrator accounts.
func (r *PostgresRepository) ListAdminIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT user_id FROM users WHERE role = $1`

	rows, err := r.pool.Query(ctx, query, RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *PostgresRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.ContactNumber,
		&u.AddressHouse,
		&u.AddressStreet,
		&u.AddressCity,
		&u.AddressState,
		&u.AddressPincode,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
