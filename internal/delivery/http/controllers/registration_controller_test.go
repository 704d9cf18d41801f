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

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	reg     *domain.EventRegistration
	regs    []*domain.EventRegistration
	total   int
	marked  int
	err     error
	lastReq domain.RegisterRequest
}

func (f *fakeRegistrationService) RegisterForEvent(_ context.Context, req domain.RegisterRequest) (*domain.EventRegistration, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reg, nil
}

func (f *fakeRegistrationService) CancelRegistration(_ context.Context, _, _ uuid.UUID) (*domain.EventRegistration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reg, nil
}

func (f *fakeRegistrationService) CheckIn(_ context.Context, _, _ uuid.UUID) (*domain.EventRegistration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reg, nil
}

func (f *fakeRegistrationService) MarkNoShows(_ context.Context, _, _ uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.marked, nil
}

func (f *fakeRegistrationService) ListEventRegistrations(_ context.Context, _, _ uuid.UUID, _ domain.RegistrationFilter, _ domain.PaginationParams) ([]*domain.EventRegistration, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.regs, f.total, nil
}

func TestRegistrationController_Register(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	contactID := uuid.New()

	tests := []struct {
		name       string
		body       RegisterForEventRequest
		svcErr     error
		wantStatus int
		wantCode   string
		checkReq   func(t *testing.T, req domain.RegisterRequest)
	}{
		{
			name:       "self registration defaults to authenticated user",
			body:       RegisterForEventRequest{GuestCount: 1, GuestNames: []string{"Plus One"}},
			wantStatus: http.StatusCreated,
			checkReq: func(t *testing.T, req domain.RegisterRequest) {
				require.Equal(t, domain.IdentityUser, req.Registrant.Kind)
				require.NotNil(t, req.Registrant.UserID)
				assert.Equal(t, userID, *req.Registrant.UserID)
				assert.Equal(t, 1, req.GuestCount)
			},
		},
		{
			name:       "contact registration",
			body:       RegisterForEventRequest{ContactID: contactID.String()},
			wantStatus: http.StatusCreated,
			checkReq: func(t *testing.T, req domain.RegisterRequest) {
				require.Equal(t, domain.IdentityContact, req.Registrant.Kind)
				assert.Equal(t, contactID, *req.Registrant.ContactID)
			},
		},
		{
			name:       "walk-up registration",
			body:       RegisterForEventRequest{Email: "walkup@example.com", Name: "Walk Up"},
			wantStatus: http.StatusCreated,
			checkReq: func(t *testing.T, req domain.RegisterRequest) {
				require.Equal(t, domain.IdentityManual, req.Registrant.Kind)
				assert.Equal(t, "walkup@example.com", req.Registrant.Email)
			},
		},
		{
			name:       "invitation link sets source",
			body:       RegisterForEventRequest{InvitationID: uuid.NewString()},
			wantStatus: http.StatusCreated,
			checkReq: func(t *testing.T, req domain.RegisterRequest) {
				require.NotNil(t, req.InvitationID)
				assert.Equal(t, domain.SourceInvitation, req.Source)
			},
		},
		{
			name:       "contact and email are exclusive",
			body:       RegisterForEventRequest{ContactID: contactID.String(), Email: "x@example.com"},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "event full",
			body:       RegisterForEventRequest{},
			svcErr:     domain.ErrEventFull,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "already registered",
			body:       RegisterForEventRequest{},
			svcErr:     domain.ErrAlreadyRegistered,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "lock timeout",
			body:       RegisterForEventRequest{},
			svcErr:     domain.ErrTransientStorage,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   helpers.ErrCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationService{
				reg: &domain.EventRegistration{ID: uuid.New(), EventID: eventID, Status: domain.RegistrationRegistered},
				err: tt.svcErr,
			}
			ctrl := NewRegistrationController(testControllerLogger(), svc)

			req := authedRequest(t, http.MethodPost, "http://test/events/"+eventID.String()+"/registrations", tt.body, userID)
			req.SetPathValue("eventID", eventID.String())
			rr := httptest.NewRecorder()
			ctrl.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
			if tt.checkReq != nil {
				tt.checkReq(t, svc.lastReq)
				assert.Equal(t, eventID, svc.lastReq.EventID)
			}
		})
	}
}

func TestRegistrationController_CancelRegistration(t *testing.T) {
	userID := uuid.New()
	registrationID := uuid.New()

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"cancelled", nil, http.StatusOK},
		{"stranger forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"terminal status", domain.ErrInvalidStateTransition, http.StatusConflict},
		{"unknown registration", domain.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistrationService{
				reg: &domain.EventRegistration{ID: registrationID, Status: domain.RegistrationCancelled},
				err: tt.svcErr,
			}
			ctrl := NewRegistrationController(testControllerLogger(), svc)

			req := authedRequest(t, http.MethodDelete, "http://test/registrations/"+registrationID.String(), nil, userID)
			req.SetPathValue("registrationID", registrationID.String())
			rr := httptest.NewRecorder()
			ctrl.CancelRegistration(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRegistrationController_MarkNoShows(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()

	t.Run("reports marked count", func(t *testing.T) {
		svc := &fakeRegistrationService{marked: 3}
		ctrl := NewRegistrationController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/events/"+eventID.String()+"/no-shows", nil, userID)
		req.SetPathValue("eventID", eventID.String())
		rr := httptest.NewRecorder()
		ctrl.MarkNoShows(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var payload struct {
			Data MarkNoShowsResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
		assert.Equal(t, 3, payload.Data.Marked)
	})

	t.Run("event not ended", func(t *testing.T) {
		svc := &fakeRegistrationService{err: domain.ErrEventNotEnded}
		ctrl := NewRegistrationController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/events/"+eventID.String()+"/no-shows", nil, userID)
		req.SetPathValue("eventID", eventID.String())
		rr := httptest.NewRecorder()
		ctrl.MarkNoShows(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
	})
}
