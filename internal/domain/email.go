package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the invitation delivery email. RSVPLink
// embeds the invitation token; the delivery adapter reports status back via
// InvitationService.RecordDeliveryEvent.
type InvitationEmailData struct {
	Email           string
	RecipientName   string
	InviterName     string
	EventTitle      string
	EventStart      string
	PersonalMessage string
	RSVPLink        string
}

// CancellationNoticeEmailData holds data for the event-cancelled notice sent
// to invitees and registrants.
type CancellationNoticeEmailData struct {
	Email         string
	RecipientName string
	EventTitle    string
}

// EmailService is the outbound notification obligation of the core: deliver
// invitations and fan out cancellation notices. Implementations live in the
// email adapter; the domain never depends on delivery mechanics.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
	SendCancellationNotice(ctx context.Context, data *CancellationNoticeEmailData) error
}
