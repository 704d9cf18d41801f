package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/domain"
)

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	inv          *domain.EventInvitation
	invs         []*domain.EventInvitation
	total        int
	err          error
	lastTarget   domain.InvitationTarget
	lastDecision domain.InvitationDecision
}

func (f *fakeInvitationService) InviteToEvent(_ context.Context, _, _ uuid.UUID, target domain.InvitationTarget, _ domain.InvitationMethod, _ string) (*domain.EventInvitation, error) {
	f.lastTarget = target
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

func (f *fakeInvitationService) RecordDeliveryEvent(_ context.Context, _ uuid.UUID, _ domain.InvitationStatus) (*domain.EventInvitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

func (f *fakeInvitationService) RespondToInvitation(_ context.Context, _ string, decision domain.InvitationDecision) (*domain.EventInvitation, error) {
	f.lastDecision = decision
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

func (f *fakeInvitationService) CancelInvitation(_ context.Context, _, _ uuid.UUID) (*domain.EventInvitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

func (f *fakeInvitationService) ListEventInvitations(_ context.Context, _, _ uuid.UUID, _ domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.invs, f.total, nil
}

func TestInvitationController_Invite(t *testing.T) {
	userID := uuid.New()
	eventID := uuid.New()
	inviteeID := uuid.New()

	tests := []struct {
		name       string
		body       InviteRequest
		svcErr     error
		wantStatus int
		wantCode   string
		wantKind   domain.IdentityKind
	}{
		{
			name:       "user target",
			body:       InviteRequest{UserID: inviteeID.String()},
			wantStatus: http.StatusCreated,
			wantKind:   domain.IdentityUser,
		},
		{
			name:       "manual target",
			body:       InviteRequest{Email: "guest@example.com", Name: "Guest"},
			wantStatus: http.StatusCreated,
			wantKind:   domain.IdentityManual,
		},
		{
			name:       "no target variant",
			body:       InviteRequest{},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "two target variants",
			body:       InviteRequest{UserID: inviteeID.String(), Email: "guest@example.com"},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "already invited",
			body:       InviteRequest{UserID: inviteeID.String()},
			svcErr:     domain.ErrAlreadyInvited,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvitationService{
				inv: &domain.EventInvitation{ID: uuid.New(), EventID: eventID, Status: domain.InvitationSent},
				err: tt.svcErr,
			}
			ctrl := NewInvitationController(testControllerLogger(), svc)

			req := authedRequest(t, http.MethodPost, "http://test/events/"+eventID.String()+"/invitations", tt.body, userID)
			req.SetPathValue("eventID", eventID.String())
			rr := httptest.NewRecorder()
			ctrl.Invite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, tt.wantKind, svc.lastTarget.Kind)
			}
		})
	}
}

func TestInvitationController_Respond(t *testing.T) {
	token := uuid.NewString()

	tests := []struct {
		name       string
		decision   string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"accept", "accepted", nil, http.StatusOK, ""},
		{"decline", "declined", nil, http.StatusOK, ""},
		{"bad decision", "maybe", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"expired or unknown token", "accepted", domain.ErrInvitationExpired, http.StatusGone, helpers.ErrCodeGone},
		{"already responded", "accepted", domain.ErrInvalidStateTransition, http.StatusConflict, helpers.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvitationService{
				inv: &domain.EventInvitation{ID: uuid.New(), Status: domain.InvitationAccepted},
				err: tt.svcErr,
			}
			ctrl := NewInvitationController(testControllerLogger(), svc)

			req := authedRequest(t, http.MethodPost, "http://test/rsvp/"+token, RespondRequest{Decision: tt.decision}, uuid.Nil)
			req.SetPathValue("token", token)
			rr := httptest.NewRecorder()
			ctrl.Respond(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestInvitationController_RecordDelivery(t *testing.T) {
	userID := uuid.New()
	invitationID := uuid.New()

	t.Run("advances status", func(t *testing.T) {
		svc := &fakeInvitationService{inv: &domain.EventInvitation{ID: invitationID, Status: domain.InvitationDelivered}}
		ctrl := NewInvitationController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/invitations/"+invitationID.String()+"/delivery",
			DeliveryEventRequest{Status: "delivered"}, userID)
		req.SetPathValue("invitationID", invitationID.String())
		rr := httptest.NewRecorder()
		ctrl.RecordDelivery(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("backward report rejected", func(t *testing.T) {
		svc := &fakeInvitationService{err: domain.ErrInvalidStateTransition}
		ctrl := NewInvitationController(testControllerLogger(), svc)

		req := authedRequest(t, http.MethodPost, "http://test/invitations/"+invitationID.String()+"/delivery",
			DeliveryEventRequest{Status: "sent"}, userID)
		req.SetPathValue("invitationID", invitationID.String())
		rr := httptest.NewRecorder()
		ctrl.RecordDelivery(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
	})
}
