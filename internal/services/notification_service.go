// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/listing-studio/internal/config"
	"github.com/javajoker/listing-studio/internal/generation"
	"github.com/javajoker/listing-studio/internal/models"
)

const NotificationTypeListingGenerated = "listing_generated"

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
	send   func(to, subject, body string) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	s := &NotificationService{
		db:     db,
		config: config,
	}
	s.send = s.sendEmail
	return s
}

// NotifyGenerationComplete stores an in-app notification and, when e-mail is
// enabled and the run has an address, mails the summary.
func (s *NotificationService) NotifyGenerationComplete(ctx context.Context, c generation.Completion) error {
	notification := &models.Notification{
		CompanyID: c.CompanyID,
		UserID:    c.UserID,
		Type:      NotificationTypeListingGenerated,
		Title:     "Listing ready: " + c.Title,
		Message:   c.Message,
		Data: models.JSONB{
			"run_id":          c.RunID.String(),
			"product_id":      c.Key.ProductID.String(),
			"channel":         string(c.Key.Channel),
			"image_count":     c.Summary.ImageCount(),
			"copy_generated":  c.Summary.CopyGenerated,
			"video_generated": c.Summary.VideoGenerated,
		},
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if !s.config.Email.Enabled || c.Email == "" {
		return nil
	}

	tmpl := s.getEmailTemplate("listing_generated")
	body, err := s.renderTemplate(tmpl.Body, map[string]interface{}{
		"Title":   c.Title,
		"Message": c.Message,
		"Channel": string(c.Key.Channel),
		"Images":  c.Summary.ImageCount(),
		"Video":   c.Summary.VideoGenerated,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.send(c.Email, tmpl.Subject+" - "+c.Title, body)
}

// ListUnread returns the unread notifications of a user, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification of userID as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("database error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email would be sent")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"listing_generated": {
			Subject: "Your listing is ready",
			Body: `
<!DOCTYPE html>
<html>
<body>
    <h2>{{.Title}}</h2>
    <p>{{.Message}}</p>
    <p>Channel: {{.Channel}}</p>
    <ul>
        <li>Images: {{.Images}}</li>
        <li>Video: {{if .Video}}yes{{else}}no{{end}}</li>
    </ul>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
