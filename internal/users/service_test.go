package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rohitpal/userhub/backend/internal/models"
	"github.com/rohitpal/userhub/backend/internal/store"
)

// ---- mock store ----

type mockStore struct {
	createFn        func(context.Context, *models.User) (*models.User, error)
	getByIDFn       func(context.Context, int64) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	listFn          func(context.Context) ([]models.User, error)
	updateFn        func(context.Context, int64, models.UserPatch) (*models.User, error)
	deleteFn        func(context.Context, int64) (bool, error)
	insertReportFn  func(context.Context, models.Report) error
}

func (m *mockStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockStore) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockStore) DeleteUser(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, fmt.Errorf("not configured")
}

func (m *mockStore) InsertReport(ctx context.Context, r models.Report) error {
	if m.insertReportFn != nil {
		return m.insertReportFn(ctx, r)
	}
	return fmt.Errorf("not configured")
}

// ---- helpers ----

const testPassword = "Test123!@#"

func testUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword(digestPassword(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &models.User{
		ID:           1,
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ---- tests ----

func TestRegisterHashesPassword(t *testing.T) {
	var stored *models.User
	st := &mockStore{
		createFn: func(_ context.Context, u *models.User) (*models.User, error) {
			stored = u
			created := *u
			created.ID = 1
			created.IsActive = true
			created.CreatedAt = time.Now().UTC()
			created.UpdatedAt = created.CreatedAt
			return &created, nil
		},
	}
	svc := NewService(st)

	view, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	// The store never sees the plaintext and the hash verifies.
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), digestPassword(testPassword)))

	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, "testuser", view.Username)
	assert.True(t, view.IsActive)
}

func TestRegisterViewNeverExposesPassword(t *testing.T) {
	st := &mockStore{
		createFn: func(_ context.Context, u *models.User) (*models.User, error) {
			created := *u
			created.ID = 1
			return &created, nil
		},
	}
	svc := NewService(st)

	view, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), testPassword)
}

func TestRegisterInvalidInputNeverReachesStore(t *testing.T) {
	storeCalled := false
	st := &mockStore{
		createFn: func(_ context.Context, u *models.User) (*models.User, error) {
			storeCalled = true
			return u, nil
		},
	}
	svc := NewService(st)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "Weakpass!", // no digit
	})
	verrs := fieldErrors(t, err)
	assert.Contains(t, verrs["password"][0], "number")
	assert.False(t, storeCalled)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	st := &mockStore{
		createFn: func(context.Context, *models.User) (*models.User, error) {
			return nil, store.ErrDuplicateIdentity
		},
	}
	svc := NewService(st)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "testuser",
		Email:    "another@example.com",
		Password: testPassword,
	})
	assert.ErrorIs(t, err, store.ErrDuplicateIdentity)
}

func TestAuthenticate(t *testing.T) {
	known := testUser(t)
	st := &mockStore{
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if username == known.Username {
				return known, nil
			}
			return nil, nil
		},
	}
	svc := NewService(st)
	ctx := context.Background()

	view, err := svc.Authenticate(ctx, "testuser", testPassword)
	require.NoError(t, err)
	assert.Equal(t, known.ID, view.ID)
	assert.Equal(t, known.Username, view.Username)

	// Wrong password and unknown username fail with the same signal.
	_, badPw := svc.Authenticate(ctx, "testuser", "wrongpassword")
	_, unknown := svc.Authenticate(ctx, "ghost", "anything")
	assert.ErrorIs(t, badPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, badPw, unknown)
}

func TestRegisterAndAuthenticateLongPassword(t *testing.T) {
	// 100 characters; bcrypt alone caps out at 72 bytes, so the service
	// must accept this via the pre-digest.
	longPassword := "Aa1!" + strings.Repeat("x", 96)

	var stored string
	st := &mockStore{
		createFn: func(_ context.Context, u *models.User) (*models.User, error) {
			stored = u.PasswordHash
			created := *u
			created.ID = 1
			created.IsActive = true
			return &created, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if username == "longpw" && stored != "" {
				return &models.User{ID: 1, Username: "longpw", PasswordHash: stored, IsActive: true}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(st)
	ctx := context.Background()

	view, err := svc.Register(ctx, models.RegisterRequest{
		Username: "longpw",
		Email:    "longpw@example.com",
		Password: longPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, "longpw", view.Username)

	authed, err := svc.Authenticate(ctx, "longpw", longPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(1), authed.ID)

	_, err = svc.Authenticate(ctx, "longpw", longPassword+"y")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetByIDAbsence(t *testing.T) {
	st := &mockStore{
		getByIDFn: func(context.Context, int64) (*models.User, error) { return nil, nil },
	}
	svc := NewService(st)

	view, err := svc.GetByID(context.Background(), 999)
	assert.NoError(t, err)
	assert.Nil(t, view)
}

func TestList(t *testing.T) {
	st := &mockStore{
		listFn: func(context.Context) ([]models.User, error) {
			return []models.User{*testUser(t)}, nil
		},
	}
	svc := NewService(st)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "testuser", views[0].Username)
}

func TestUpdatePartialPatch(t *testing.T) {
	var gotPatch models.UserPatch
	st := &mockStore{
		updateFn: func(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
			gotPatch = patch
			u := testUser(t)
			u.FirstName = patch.FirstName
			u.UpdatedAt = u.UpdatedAt.Add(time.Second)
			return u, nil
		},
	}
	svc := NewService(st)

	view, err := svc.Update(context.Background(), 1, models.UpdateUserRequest{
		FirstName: strPtr("Updated"),
	})
	require.NoError(t, err)

	// Only the supplied field is in the patch.
	require.NotNil(t, gotPatch.FirstName)
	assert.Equal(t, "Updated", *gotPatch.FirstName)
	assert.Nil(t, gotPatch.Username)
	assert.Nil(t, gotPatch.Email)
	assert.Nil(t, gotPatch.PasswordHash)

	assert.Equal(t, "Updated", *view.FirstName)
	assert.True(t, !view.UpdatedAt.Before(view.CreatedAt))
}

func TestUpdateRehashesPassword(t *testing.T) {
	var gotPatch models.UserPatch
	st := &mockStore{
		updateFn: func(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
			gotPatch = patch
			return testUser(t), nil
		},
	}
	svc := NewService(st)

	const newPassword = "NewPass123!"
	_, err := svc.Update(context.Background(), 1, models.UpdateUserRequest{
		Password: strPtr(newPassword),
	})
	require.NoError(t, err)

	require.NotNil(t, gotPatch.PasswordHash)
	assert.NotEqual(t, newPassword, *gotPatch.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*gotPatch.PasswordHash), digestPassword(newPassword)))
}

func TestUpdateAbsence(t *testing.T) {
	st := &mockStore{
		updateFn: func(context.Context, int64, models.UserPatch) (*models.User, error) {
			return nil, nil
		},
	}
	svc := NewService(st)

	view, err := svc.Update(context.Background(), 999, models.UpdateUserRequest{
		FirstName: strPtr("ghost"),
	})
	assert.NoError(t, err)
	assert.Nil(t, view)
}

func TestUpdateDuplicateIdentity(t *testing.T) {
	st := &mockStore{
		updateFn: func(context.Context, int64, models.UserPatch) (*models.User, error) {
			return nil, store.ErrDuplicateIdentity
		},
	}
	svc := NewService(st)

	_, err := svc.Update(context.Background(), 1, models.UpdateUserRequest{
		Email: strPtr("taken@example.com"),
	})
	assert.ErrorIs(t, err, store.ErrDuplicateIdentity)
}

func TestDelete(t *testing.T) {
	deleted := true
	st := &mockStore{
		deleteFn: func(context.Context, int64) (bool, error) {
			was := deleted
			deleted = false
			return was, nil
		},
	}
	svc := NewService(st)
	ctx := context.Background()

	ok, err := svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second delete of the same id finds nothing.
	ok, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileReport(t *testing.T) {
	var got models.Report
	st := &mockStore{
		insertReportFn: func(_ context.Context, r models.Report) error {
			got = r
			return nil
		},
	}
	svc := NewService(st)

	reporter, target := int64(1), int64(2)
	err := svc.FileReport(context.Background(), models.ReportRequest{
		ReporterID: &reporter,
		TargetID:   &target,
		Reason:     "spam",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UserID)
	assert.Equal(t, "spam", got.Reason)
}

func TestFileReportInvalidNeverReachesStore(t *testing.T) {
	storeCalled := false
	st := &mockStore{
		insertReportFn: func(context.Context, models.Report) error {
			storeCalled = true
			return nil
		},
	}
	svc := NewService(st)

	err := svc.FileReport(context.Background(), models.ReportRequest{Reason: "spam"})
	verrs := fieldErrors(t, err)
	assert.Contains(t, verrs, "reporter_id")
	assert.Contains(t, verrs, "target_id")
	assert.False(t, storeCalled)
}
