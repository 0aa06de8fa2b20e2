package models

import "time"

// User represents a row in the PostgreSQL users table. PasswordHash is the
// only credential ever persisted; there is no plaintext field and no method
// that returns the hash to callers outside the store and service layers.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Bio          *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the serializable projection of a User returned to callers.
// It deliberately has no password field of any kind.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsActive  bool      `json:"is_active"`
}

// View builds the caller-facing projection of the user.
func (u *User) View() *UserView {
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		IsActive:  u.IsActive,
	}
}

// UserPatch lists the fields a partial update may change. A nil field is
// left untouched. PasswordHash carries an already-hashed value; the service
// layer hashes before the patch reaches the store.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Bio          *string
}

// RegisterRequest is the JSON body for POST /api/users.
type RegisterRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// UpdateUserRequest is the JSON body for PUT /api/users/{id}. Absent fields
// stay nil and are neither validated nor applied.
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// LoginRequest is the JSON body for POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
