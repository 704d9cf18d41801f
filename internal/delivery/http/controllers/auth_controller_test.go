package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	user       *domain.User
	token      string
	err        error
	lastRole   domain.UserRole
	lastUpdate *domain.User
}

func (f *fakeUserService) SignUp(_ context.Context, email, _, name string, role domain.UserRole) (*domain.User, error) {
	f.lastRole = role
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) LogIn(_ context.Context, _, _ string) (string, *domain.User, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.user, nil
}

func (f *fakeUserService) GetByID(_ context.Context, _ uuid.UUID) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeUserService) Update(_ context.Context, user *domain.User) error {
	f.lastUpdate = user
	return f.err
}

func (f *fakeUserService) List(_ context.Context, _ domain.PaginationParams) ([]*domain.User, int, error) {
	return nil, 0, f.err
}

func TestAuthController_SignUp(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "alice@example.com", Name: "Alice", Role: domain.RoleParticipant}

	tests := []struct {
		name       string
		body       SignUpRequest
		svcErr     error
		wantStatus int
		wantCode   string
		wantRole   domain.UserRole
	}{
		{
			name:       "participant by default",
			body:       SignUpRequest{Email: "alice@example.com", Password: "s3cretpass", Name: "Alice"},
			wantStatus: http.StatusCreated,
			wantRole:   domain.RoleParticipant,
		},
		{
			name:       "organizer role accepted",
			body:       SignUpRequest{Email: "bob@example.com", Password: "s3cretpass", Name: "Bob", Role: "organizer"},
			wantStatus: http.StatusCreated,
			wantRole:   domain.RoleOrganizer,
		},
		{
			name:       "admin role rejected",
			body:       SignUpRequest{Email: "eve@example.com", Password: "s3cretpass", Name: "Eve", Role: "admin"},
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
		{
			name:       "invalid email",
			body:       SignUpRequest{Email: "not-an-email", Password: "s3cretpass", Name: "Alice"},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "duplicate email",
			body:       SignUpRequest{Email: "alice@example.com", Password: "s3cretpass", Name: "Alice"},
			svcErr:     domain.ErrDuplicateEmail,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeUserService{user: user, err: tt.svcErr}
			ctrl := NewAuthController(testControllerLogger(), svc)

			req := authedRequest(t, http.MethodPost, "http://test/auth/signup", tt.body, uuid.Nil)
			rr := httptest.NewRecorder()
			ctrl.SignUp(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, tt.wantRole, svc.lastRole)
			}
		})
	}
}

func TestAuthController_LogIn(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}

	t.Run("returns token and user", func(t *testing.T) {
		svc := &fakeUserService{user: user, token: "jwt-token"}
		ctrl := NewAuthController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/auth/login",
			LogInRequest{Email: "alice@example.com", Password: "s3cretpass"}, uuid.Nil)
		rr := httptest.NewRecorder()
		ctrl.LogIn(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var payload struct {
			Data LogInResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
		assert.Equal(t, "jwt-token", payload.Data.Token)
		assert.Equal(t, user.Email, payload.Data.User.Email)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := &fakeUserService{err: domain.ErrForbidden}
		ctrl := NewAuthController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/auth/login",
			LogInRequest{Email: "alice@example.com", Password: "wrong"}, uuid.Nil)
		rr := httptest.NewRecorder()
		ctrl.LogIn(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
		envelope := decodeEnvelope(t, rr)
		assert.Equal(t, helpers.ErrCodeForbidden, envelope.Error.Code)
	})
}

func TestAuthController_GetMe(t *testing.T) {
	userID := uuid.New()
	user := &domain.User{ID: userID, Email: "alice@example.com", Name: "Alice"}

	t.Run("returns the authenticated user", func(t *testing.T) {
		svc := &fakeUserService{user: user}
		ctrl := NewAuthController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodGet, "http://test/users/me", nil, userID)
		rr := httptest.NewRecorder()
		ctrl.GetMe(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		ctrl := NewAuthController(testControllerLogger(), &fakeUserService{})

		req := httptest.NewRequest(http.MethodGet, "http://test/users/me", nil)
		rr := httptest.NewRecorder()
		ctrl.GetMe(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
