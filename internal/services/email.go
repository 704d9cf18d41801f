package services

import (
	"context"
	"fmt"
	"log/slog"

	"gatherly/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendInvitation sends the invitation email using the "invitation" template.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	s.logger.Info("invitation email sent", "to", data.Email, "event", data.EventTitle)
	return nil
}

// SendCancellationNotice sends the event-cancelled notice using the
// "cancellation_notice" template.
func (s *emailService) SendCancellationNotice(ctx context.Context, data *domain.CancellationNoticeEmailData) error {
	if data == nil {
		return fmt.Errorf("cancellation notice data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("cancellation_notice", data)
	if err != nil {
		return fmt.Errorf("failed to render cancellation_notice template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send cancellation notice: %w", err)
	}
	s.logger.Info("cancellation notice sent", "to", data.Email, "event", data.EventTitle)
	return nil
}
