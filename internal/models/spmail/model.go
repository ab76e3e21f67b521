package spmail

import "time"

// ContactSubmission is one row per contact form send. The notified flags
// record which of the two emails actually went out.
type ContactSubmission struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"not null" json:"email"`
	Phone          string    `json:"phone"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	Language       string    `gorm:"size:5;default:uk" json:"language"`
	AdminNotified  bool      `gorm:"default:false" json:"admin_notified"`
	ClientNotified bool      `gorm:"default:false" json:"client_notified"`
	CreatedAt      time.Time `json:"created_at"`
}

// EmailSettings is a single-row table holding the notification addresses
// and the per-language auto-reply texts, editable from the admin panel.
type EmailSettings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AdminEmail      string    `json:"admin_email"`
	FromEmail       string    `json:"from_email"`
	FromName        string    `json:"from_name"`
	SubjectUK       string    `gorm:"column:subject_uk" json:"subject_uk"`
	SubjectEN       string    `gorm:"column:subject_en" json:"subject_en"`
	ReplyMessageUK  string    `gorm:"column:reply_message_uk;type:text" json:"reply_message_uk"`
	ReplyMessageEN  string    `gorm:"column:reply_message_en;type:text" json:"reply_message_en"`
	NotifyAdmin     bool      `gorm:"default:true" json:"notify_admin"`
	AutoReplyClient bool      `gorm:"default:true" json:"auto_reply_client"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (ContactSubmission) TableName() string { return "contact_submissions" }
func (EmailSettings) TableName() string     { return "email_settings" }

// DefaultSettings seeds the settings row on first run.
func DefaultSettings() *EmailSettings {
	return &EmailSettings{
		FromName:        "SitePulse",
		SubjectUK:       "Дякуємо за звернення",
		SubjectEN:       "Thank you for contacting us",
		ReplyMessageUK:  "Ми отримали ваше повідомлення і відповімо найближчим часом.",
		ReplyMessageEN:  "We received your message and will get back to you shortly.",
		NotifyAdmin:     true,
		AutoReplyClient: true,
	}
}
