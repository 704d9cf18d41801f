package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/domain"
)

type invFixture struct {
	service  domain.InvitationService
	events   *fakeEventRepo
	invs     *fakeInvitationRepo
	users    *fakeUserRepo
	contacts *fakeContactRepo
	email    *fakeEmailService
}

func newInvFixture(t *testing.T) *invFixture {
	t.Helper()
	f := &invFixture{
		events:   newFakeEventRepo(),
		invs:     newFakeInvitationRepo(),
		users:    newFakeUserRepo(),
		contacts: newFakeContactRepo(),
		email:    newFakeEmailService(),
	}
	f.service = NewInvitationService(f.events, f.invs, f.users, f.contacts, f.email,
		"https://gatherly.example.com", 72*time.Hour, testLogger(), 5*time.Second)
	return f
}

func (f *invFixture) addEvent(t *testing.T, status domain.EventStatus) *domain.Event {
	t.Helper()
	event := publishedEvent(0, false)
	event.Status = status
	require.NoError(t, f.events.Create(context.Background(), event))
	return event
}

func TestInviteToEvent(t *testing.T) {
	t.Run("sends email and moves to sent", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)

		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "come along")
		require.NoError(t, err)

		assert.Equal(t, domain.InvitationSent, inv.Status)
		assert.NotEmpty(t, inv.Token)
		assert.NotNil(t, inv.SentAt)
		require.NotNil(t, inv.ExpiresAt)
		assert.True(t, inv.ExpiresAt.After(time.Now()))

		require.Len(t, f.email.invitations, 1)
		sent := f.email.invitations[0]
		assert.Equal(t, "guest@example.com", sent.Email)
		assert.Equal(t, "come along", sent.PersonalMessage)
		assert.Contains(t, sent.RSVPLink, inv.Token)
	})

	t.Run("stays pending when delivery fails", func(t *testing.T) {
		f := newInvFixture(t)
		f.email.err = assert.AnError
		event := f.addEvent(t, domain.EventPublished)

		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, inv.Status)
		assert.Nil(t, inv.SentAt)
	})

	t.Run("duplicate target", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)

		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
		_, err = f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("GUEST@example.com", "Guest Again"), domain.MethodEmail, "")
		assert.ErrorIs(t, err, domain.ErrAlreadyInvited)
	})

	t.Run("user target must exist", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)

		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.UserTarget(uuid.New()), domain.MethodEmail, "")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("resolves user target email", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)
		user := domain.NewUser("member@example.com", "Member", domain.RoleParticipant, time.Now())
		require.NoError(t, f.users.Create(context.Background(), user))

		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.UserTarget(user.ID), domain.MethodEmail, "")
		require.NoError(t, err)
		require.Len(t, f.email.invitations, 1)
		assert.Equal(t, "member@example.com", f.email.invitations[0].Email)
	})

	t.Run("non-organizer is forbidden", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)

		_, err := f.service.InviteToEvent(context.Background(), uuid.New(), event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("draft events accept invitations from the organizer only", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventDraft)
		coOrg := uuid.New()
		event.CoOrganizers = []uuid.UUID{coOrg}
		require.NoError(t, f.events.Update(context.Background(), event))

		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("a@example.com", "A"), domain.MethodEmail, "")
		require.NoError(t, err)

		_, err = f.service.InviteToEvent(context.Background(), coOrg, event.ID,
			domain.ManualTarget("b@example.com", "B"), domain.MethodEmail, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("cancelled events take no invitations", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventCancelled)

		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})
}

func TestRecordDeliveryEvent(t *testing.T) {
	newSent := func(t *testing.T, f *invFixture) *domain.EventInvitation {
		event := f.addEvent(t, domain.EventPublished)
		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
		require.Equal(t, domain.InvitationSent, inv.Status)
		return inv
	}

	t.Run("sent to delivered to opened", func(t *testing.T) {
		f := newInvFixture(t)
		inv := newSent(t, f)

		got, err := f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationDelivered, got.Status)

		got, err = f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationOpened)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationOpened, got.Status)
		assert.NotNil(t, got.OpenedAt)
	})

	t.Run("no going backwards", func(t *testing.T) {
		f := newInvFixture(t)
		inv := newSent(t, f)

		_, err := f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationDelivered)
		require.NoError(t, err)
		_, err = f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationOpened)
		require.NoError(t, err)
		_, err = f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationDelivered)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("responses are not delivery events", func(t *testing.T) {
		f := newInvFixture(t)
		inv := newSent(t, f)

		_, err := f.service.RecordDeliveryEvent(context.Background(), inv.ID, domain.InvitationAccepted)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("unknown invitation", func(t *testing.T) {
		f := newInvFixture(t)
		_, err := f.service.RecordDeliveryEvent(context.Background(), uuid.New(), domain.InvitationDelivered)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRespondToInvitation(t *testing.T) {
	invite := func(t *testing.T, f *invFixture) *domain.EventInvitation {
		event := f.addEvent(t, domain.EventPublished)
		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
		return inv
	}

	t.Run("accept", func(t *testing.T) {
		f := newInvFixture(t)
		inv := invite(t, f)

		got, err := f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionAccepted)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationAccepted, got.Status)
		assert.NotNil(t, got.RespondedAt)
	})

	t.Run("decline", func(t *testing.T) {
		f := newInvFixture(t)
		inv := invite(t, f)

		got, err := f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionDeclined)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationDeclined, got.Status)
	})

	t.Run("responding twice", func(t *testing.T) {
		f := newInvFixture(t)
		inv := invite(t, f)

		_, err := f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionAccepted)
		require.NoError(t, err)
		// The first response is terminal, so the token stops resolving.
		_, err = f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionDeclined)
		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	})

	t.Run("unknown token looks expired", func(t *testing.T) {
		f := newInvFixture(t)
		_, err := f.service.RespondToInvitation(context.Background(), "no-such-token", domain.DecisionAccepted)
		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newInvFixture(t)
		inv := invite(t, f)

		expired := time.Now().Add(-time.Hour)
		inv.ExpiresAt = &expired
		require.NoError(t, f.invs.Update(context.Background(), inv))

		_, err := f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionAccepted)
		assert.ErrorIs(t, err, domain.ErrInvitationExpired)
	})

	t.Run("bad decision", func(t *testing.T) {
		f := newInvFixture(t)
		inv := invite(t, f)
		_, err := f.service.RespondToInvitation(context.Background(), inv.Token, domain.InvitationDecision("maybe"))
		assert.True(t, domain.IsValidation(err))
	})
}

func TestCancelInvitation(t *testing.T) {
	t.Run("organizer cancels a pending invitation", func(t *testing.T) {
		f := newInvFixture(t)
		f.email.err = assert.AnError // keep it Pending
		event := f.addEvent(t, domain.EventPublished)
		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)

		got, err := f.service.CancelInvitation(context.Background(), event.OrganizerID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationCancelled, got.Status)
	})

	t.Run("terminal invitations stay put", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)
		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
		_, err = f.service.RespondToInvitation(context.Background(), inv.Token, domain.DecisionAccepted)
		require.NoError(t, err)

		_, err = f.service.CancelInvitation(context.Background(), event.OrganizerID, inv.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		f := newInvFixture(t)
		event := f.addEvent(t, domain.EventPublished)
		inv, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget("guest@example.com", "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)

		_, err = f.service.CancelInvitation(context.Background(), uuid.New(), inv.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestListEventInvitations(t *testing.T) {
	f := newInvFixture(t)
	event := f.addEvent(t, domain.EventPublished)
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := f.service.InviteToEvent(context.Background(), event.OrganizerID, event.ID,
			domain.ManualTarget(email, "Guest"), domain.MethodEmail, "")
		require.NoError(t, err)
	}

	invs, total, err := f.service.ListEventInvitations(context.Background(), event.OrganizerID, event.ID, domain.PaginationParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, invs, 2)

	_, _, err = f.service.ListEventInvitations(context.Background(), uuid.New(), event.ID, domain.PaginationParams{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
