package spmail

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"gorm.io/gorm"
)

// Mailer stores contact submissions and sends the admin notification plus
// the client auto-reply through Resend.
type Mailer struct {
	db     *gorm.DB
	resend *ResendClient
	mini   *minify.M
}

func New(db *gorm.DB, resend *ResendClient) *Mailer {
	m := minify.New()
	m.AddFunc("text/html", minhtml.Minify)
	return &Mailer{db: db, resend: resend, mini: m}
}

// EnsureSettings creates the default settings row when the table is empty.
func (m *Mailer) EnsureSettings(ctx context.Context) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&EmailSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return m.db.WithContext(ctx).Create(DefaultSettings()).Error
}

func (m *Mailer) GetSettings(ctx context.Context) (*EmailSettings, error) {
	var settings EmailSettings
	if err := m.db.WithContext(ctx).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (m *Mailer) UpdateSettings(ctx context.Context, settings *EmailSettings) error {
	return m.db.WithContext(ctx).Save(settings).Error
}

func (m *Mailer) ListSubmissions(ctx context.Context, limit, offset int) ([]ContactSubmission, int64, error) {
	var total int64
	if err := m.db.WithContext(ctx).Model(&ContactSubmission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []ContactSubmission
	err := m.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

// Submit saves the submission, then sends both emails best-effort. A mail
// failure is logged but never fails the request, the row is the record.
func (m *Mailer) Submit(ctx context.Context, sub *ContactSubmission) error {
	if sub.Language != "en" {
		sub.Language = "uk"
	}
	if err := m.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("saving contact submission: %w", err)
	}

	settings, err := m.GetSettings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("email settings unavailable, skipping notifications")
		return nil
	}

	from := settings.FromEmail
	if settings.FromName != "" {
		from = fmt.Sprintf("%s <%s>", settings.FromName, settings.FromEmail)
	}

	if settings.NotifyAdmin && settings.AdminEmail != "" {
		html := m.renderAdminEmail(sub)
		if err := m.resend.Send(ctx, from, settings.AdminEmail, sub.Email,
			"New contact form submission", html); err != nil {
			log.Error().Err(err).Uint("submission", sub.ID).Msg("admin notification failed")
		} else {
			sub.AdminNotified = true
		}
	}

	if settings.AutoReplyClient && sub.Email != "" {
		subject, html := m.renderClientEmail(sub, settings)
		if err := m.resend.Send(ctx, from, sub.Email, settings.AdminEmail,
			subject, html); err != nil {
			log.Error().Err(err).Uint("submission", sub.ID).Msg("client auto-reply failed")
		} else {
			sub.ClientNotified = true
		}
	}

	if sub.AdminNotified || sub.ClientNotified {
		if err := m.db.WithContext(ctx).Model(sub).
			Updates(map[string]any{
				"admin_notified":  sub.AdminNotified,
				"client_notified": sub.ClientNotified,
			}).Error; err != nil {
			log.Error().Err(err).Uint("submission", sub.ID).Msg("updating notification flags failed")
		}
	}

	return nil
}

func (m *Mailer) renderAdminEmail(sub *ContactSubmission) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h2>New contact form submission</h2>")
	b.WriteString("<table>")
	fmt.Fprintf(&b, "<tr><td><b>Name</b></td><td>%s</td></tr>", template.HTMLEscapeString(sub.Name))
	fmt.Fprintf(&b, "<tr><td><b>Email</b></td><td>%s</td></tr>", template.HTMLEscapeString(sub.Email))
	if sub.Phone != "" {
		fmt.Fprintf(&b, "<tr><td><b>Phone</b></td><td>%s</td></tr>", template.HTMLEscapeString(sub.Phone))
	}
	fmt.Fprintf(&b, "<tr><td><b>Language</b></td><td>%s</td></tr>", sub.Language)
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>%s</p>", template.HTMLEscapeString(sub.Message))
	b.WriteString("</body></html>")
	return m.minifyHTML(b.String())
}

func (m *Mailer) renderClientEmail(sub *ContactSubmission, settings *EmailSettings) (string, string) {
	subject := settings.SubjectUK
	message := settings.ReplyMessageUK
	if sub.Language == "en" {
		subject = settings.SubjectEN
		message = settings.ReplyMessageEN
	}

	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>%s</p>", template.HTMLEscapeString(message))
	b.WriteString("</body></html>")
	return subject, m.minifyHTML(b.String())
}

func (m *Mailer) minifyHTML(html string) string {
	out, err := m.mini.String("text/html", html)
	if err != nil {
		return html
	}
	return out
}
