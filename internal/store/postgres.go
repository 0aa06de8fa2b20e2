package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rohitpal/userhub/backend/internal/models"
)

// ErrDuplicateIdentity is returned when an insert or update collides with
// the unique constraints on username or email. Conflicts are detected at
// commit time via the constraint violation, never by a pre-check, so two
// racing inserts cannot both succeed.
var ErrDuplicateIdentity = errors.New("username or email already exists")

const userColumns = `id, username, email, password_hash, first_name, last_name, bio, is_active, created_at, updated_at`

// PostgresStore handles user and report CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and reports tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      VARCHAR(80)  UNIQUE NOT NULL,
			email         VARCHAR(120) UNIQUE NOT NULL,
			password_hash VARCHAR(256) NOT NULL,
			first_name    VARCHAR(50),
			last_name     VARCHAR(50),
			bio           VARCHAR(256),
			is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS reports (
			id      BIGSERIAL PRIMARY KEY,
			user_id BIGINT       NOT NULL REFERENCES users(id),
			reason  VARCHAR(250) NOT NULL
		)
	`)
	return err
}

// CreateUser persists a new user row and returns it with the generated id
// and timestamps filled in.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	var created models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, bio)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio,
	).Scan(userFields(&created)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// GetUserByID returns the user with the given id, or (nil, nil) if no such
// row exists.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByUsername returns the user with the given username, or (nil, nil)
// if no such row exists.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every user row in insertion order.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(userFields(&u)...); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser applies the non-nil fields of the patch to the row with the
// given id and refreshes updated_at, all in one statement. Returns
// (nil, nil) when the id does not exist.
func (s *PostgresStore) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	query, args := buildUserUpdate(id, patch)

	var u models.User
	err := s.pool.QueryRow(ctx, query, args...).Scan(userFields(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes the row with the given id and reports whether a row
// was actually deleted.
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// InsertReport appends a report row against the target account.
func (s *PostgresStore) InsertReport(ctx context.Context, r models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (user_id, reason) VALUES ($1, $2)`, r.UserID, r.Reason)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// buildUserUpdate assembles the UPDATE statement for a patch. The id is
// always $1; updated_at is refreshed unconditionally so the timestamp and
// the field changes commit or roll back together.
func buildUserUpdate(id int64, patch models.UserPatch) (string, []any) {
	sets := make([]string, 0, 7)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE users SET " + strings.Join(sets, ", ") +
		" WHERE id = $1 RETURNING " + userColumns
	return query, args
}

func userFields(u *models.User) []any {
	return []any{
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Bio,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
