package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/medic-pro/internal/config"
	"github.com/wolfman30/medic-pro/internal/notify"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// BuildEmailSender prefers SendGrid, then SES, then the logging stub.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		logger.Info("contact email via sendgrid")
		return sender
	}
	if strings.TrimSpace(cfg.SESFromEmail) != "" {
		logger.Info("contact email via SES")
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	logger.Warn("no email provider configured; contact messages are only logged")
	return notify.NewStubEmailSender(logger)
}
