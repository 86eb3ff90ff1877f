package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"

	"github.com/wolfman30/medic-pro/pkg/logging"
)

var ErrInvalidContact = errors.New("notify: invalid contact form")

const maxContactMessage = 5000

// ContactForm is what a visitor submits from the public contact page.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate trims the fields in place and rejects incomplete forms.
func (f *ContactForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)

	switch {
	case f.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidContact)
	case f.Message == "":
		return fmt.Errorf("%w: message is required", ErrInvalidContact)
	case len(f.Message) > maxContactMessage:
		return fmt.Errorf("%w: message too long", ErrInvalidContact)
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrInvalidContact)
	}
	return nil
}

// ContactService forwards contact forms to the clinic inbox.
type ContactService struct {
	sender    EmailSender
	recipient string
	logger    *logging.Logger
}

func NewContactService(sender EmailSender, recipient string, logger *logging.Logger) *ContactService {
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactService{sender: sender, recipient: recipient, logger: logger}
}

func (s *ContactService) Submit(ctx context.Context, form ContactForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	if s.recipient == "" {
		return fmt.Errorf("notify: contact recipient not configured")
	}

	subject := form.Subject
	if subject == "" {
		subject = "Nouveau message de contact"
	}
	msg := EmailMessage{
		To:      s.recipient,
		ReplyTo: form.Email,
		Subject: "[MedicPro] " + subject,
		Body:    fmt.Sprintf("De: %s <%s>\n\n%s", form.Name, form.Email, form.Message),
		HTML: fmt.Sprintf("<p><strong>De:</strong> %s &lt;%s&gt;</p><p>%s</p>",
			html.EscapeString(form.Name), html.EscapeString(form.Email),
			strings.ReplaceAll(html.EscapeString(form.Message), "\n", "<br>")),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: submit contact: %w", err)
	}
	s.logger.Info("contact form forwarded", "subject", subject)
	return nil
}
