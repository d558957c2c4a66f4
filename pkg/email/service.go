package email

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendFunc delivers a prepared message and returns the provider status code.
type sendFunc func(msg *mail.SGMailV3) (int, string, error)

// Service handles email sending
type Service struct {
	fromEmail   string
	fromName    string
	frontendURL string
	useSendGrid bool
	send        sendFunc
	logger      logger.Logger
}

// NewService creates a new email service.
// If sendGridAPIKey is provided, emails will be sent via SendGrid.
// Otherwise, emails will be logged (development mode).
func NewService(fromEmail, fromName, frontendURL, sendGridAPIKey string, log logger.Logger) *Service {
	log = log.With("component", "email")

	s := &Service{
		fromEmail:   fromEmail,
		fromName:    fromName,
		frontendURL: frontendURL,
		useSendGrid: sendGridAPIKey != "",
		logger:      log,
	}

	if s.useSendGrid {
		client := sendgrid.NewSendClient(sendGridAPIKey)
		s.send = func(msg *mail.SGMailV3) (int, string, error) {
			resp, err := client.Send(msg)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		}
		log.Info("email service initialized with SendGrid")
	} else {
		log.Warn("email service in console-only mode, set SENDGRID_API_KEY to send")
	}

	return s
}

// VerifyURL returns the dashboard link that exchanges token for a session.
func (s *Service) VerifyURL(token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", s.frontendURL, url.QueryEscape(token))
}

// SendMagicLink emails a sign-in link. It reports false without error when
// running in console mode.
func (s *Service) SendMagicLink(ctx context.Context, toEmail, token, studioName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	verifyURL := s.VerifyURL(token)
	subject := fmt.Sprintf("Sign in to %s — Beauty OS", studioName)

	if !s.useSendGrid {
		s.logger.Info("magic link email not sent (development mode)",
			"to", toEmail,
			"subject", subject,
			"verify_url", verifyURL,
		)
		return false, nil
	}

	if err := s.sendViaSendGrid(toEmail, studioName, subject, magicLinkHTML(verifyURL, studioName), magicLinkText(verifyURL, studioName)); err != nil {
		return false, err
	}
	return true, nil
}

// sendViaSendGrid sends email using SendGrid API
func (s *Service) sendViaSendGrid(toEmail, toName, subject, htmlBody, plainTextBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	message := mail.NewSingleEmail(from, subject, to, plainTextBody, htmlBody)

	status, body, err := s.send(message)
	if err != nil {
		s.logger.Error("sendgrid error", "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if status >= 400 {
		s.logger.Error("sendgrid returned error status", "status", status, "body", body)
		return fmt.Errorf("sendgrid returned error status: %d", status)
	}

	s.logger.Info("email sent", "to", toEmail, "status", status)
	return nil
}

func magicLinkText(verifyURL, studioName string) string {
	return fmt.Sprintf(`Beauty OS
%s

Open the link below to sign in to your dashboard. This link expires in 15 minutes.

%s

If you didn't request this email, you can safely ignore it.
`, studioName, verifyURL)
}

func magicLinkHTML(verifyURL, studioName string) string {
	return fmt.Sprintf(`
	<div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 480px; margin: 0 auto; padding: 40px 20px;">
		<h2 style="color: #2D2D2D; font-size: 24px; margin-bottom: 8px;">Beauty <span style="color: #C9A96E;">OS</span></h2>
		<p style="color: #666; font-size: 14px; margin-bottom: 32px;">%s</p>
		<p style="color: #333; font-size: 16px; line-height: 1.5;">Click the button below to sign in to your dashboard. This link expires in 15 minutes.</p>
		<div style="text-align: center; margin: 32px 0;">
			<a href="%s" style="display: inline-block; padding: 14px 32px; background: #C9A96E; color: #fff; text-decoration: none; border-radius: 12px; font-weight: 600; font-size: 16px;">Sign In to Dashboard</a>
		</div>
		<p style="color: #999; font-size: 13px; line-height: 1.5;">If the button doesn't work, copy and paste this link into your browser:<br><a href="%s" style="color: #C9A96E; word-break: break-all;">%s</a></p>
		<hr style="border: none; border-top: 1px solid #F5C6C6; margin: 32px 0;">
		<p style="color: #bbb; font-size: 12px;">If you didn't request this email, you can safely ignore it.</p>
	</div>
	`, studioName, verifyURL, verifyURL, verifyURL)
}
