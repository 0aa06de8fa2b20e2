package users

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rohitpal/userhub/backend/internal/models"
)

// ErrInvalidCredentials is the single failure signal for authentication.
// An unknown username and a wrong password are indistinguishable to the
// caller, so responses cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is a bcrypt digest compared against when the username does not
// exist, so both authentication failure paths do comparable work.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// digestPassword pre-digests the plaintext with SHA-256 and base64-encodes
// the sum. bcrypt refuses inputs over 72 bytes while passwords may be up to
// 128 characters; the digest maps the whole range to a fixed-size input.
func digestPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digestPassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Store is the persistence surface the account service depends on.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)
	InsertReport(ctx context.Context, r models.Report) error
}

// Service implements the account business rules on top of a Store. It holds
// no state of its own; every call goes back to the store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register validates the input, hashes the password, and persists a new
// account. Validation runs fully before the store is touched.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.UserView, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateUser(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Bio:          req.Bio,
	})
	if err != nil {
		return nil, err
	}
	return created.View(), nil
}

// GetByID returns the view for the given account, or (nil, nil) when no
// such account exists.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.UserView, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return u.View(), nil
}

// List returns views for every account.
func (s *Service) List(ctx context.Context) ([]models.UserView, error) {
	rows, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(rows))
	for i := range rows {
		views = append(views, *rows[i].View())
	}
	return views, nil
}

// Update applies a partial update. Only supplied fields are validated and
// changed; a supplied password is re-hashed before it reaches the store.
// Returns (nil, nil) when the account does not exist.
func (s *Service) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.UserView, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	patch := models.UserPatch{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil || updated == nil {
		return nil, err
	}
	return updated.View(), nil
}

// Delete removes the account and reports whether one was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteUser(ctx, id)
}

// Authenticate verifies the credentials and returns the account view on
// success. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials; the unknown-username path still runs a bcrypt
// comparison so the two cases take comparable time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.UserView, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), digestPassword(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), digestPassword(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u.View(), nil
}

// FileReport appends a report against the target account. Neither the
// reporter nor the target is checked for existence; the row only records
// the target and the reason.
func (s *Service) FileReport(ctx context.Context, req models.ReportRequest) error {
	if err := validateReport(req); err != nil {
		return err
	}
	return s.store.InsertReport(ctx, models.Report{
		UserID: *req.TargetID,
		Reason: req.Reason,
	})
}
