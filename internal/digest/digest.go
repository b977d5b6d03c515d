package digest

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/finsight/insights-service/internal/cache"
	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/models"
)

// Mailer sends the weekly insights digest over SMTP.
type Mailer struct {
	cfg        *config.Config
	engine     *engine.Engine
	cache      *cache.Cache
	recipients map[string]string
	logger     *logrus.Logger
}

// NewMailer creates a digest mailer. Recipients come from configuration as
// comma-separated userID=email pairs.
func NewMailer(cfg *config.Config, eng *engine.Engine, c *cache.Cache, logger *logrus.Logger) *Mailer {
	return &Mailer{
		cfg:        cfg,
		engine:     eng,
		cache:      c,
		recipients: parseRecipients(cfg.DigestRecipients),
		logger:     logger,
	}
}

func parseRecipients(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

// Run computes fresh insights for every configured recipient and emails the
// narrative. Intended to be invoked on a cron schedule.
func (m *Mailer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for userID, address := range m.recipients {
		entry, err := m.cache.Refresh(ctx, userID, func(ctx context.Context) (*models.ComprehensiveInsights, error) {
			return m.engine.ComputeInsights(ctx, userID)
		})
		if err != nil {
			if engine.IsInsufficient(err) {
				m.logger.Infof("Skipping digest for user %s: %v", userID, err)
				continue
			}
			m.logger.Errorf("Failed to compute digest insights for user %s: %v", userID, err)
			continue
		}
		if err := m.send(address, &entry.Insights.Bundle); err != nil {
			m.logger.Errorf("Failed to send digest to %s: %v", address, err)
		}
	}
}

// send delivers one digest email.
func (m *Mailer) send(to string, bundle *models.InsightsBundle) error {
	e := email.NewEmail()
	e.From = m.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your Weekly Financial Insights - %s", time.Now().Format("Jan 2, 2006"))

	body := "Hello,\n\n" +
		"Here is your weekly financial summary:\n\n" +
		bundle.Insights + "\n\n" +
		"Best regards,\nFinsight Insights"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Infof("Digest sent to %s", to)
	return nil
}
