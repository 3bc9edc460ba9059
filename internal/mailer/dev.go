package mailer

import (
	"github.com/shopzen/storefront/pkg/logger"
)

// DevMailer logs instead of sending. Used when EMAIL_DEV_MODE is set.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendWelcomeEmail(toEmail, toName string) error {
	logger.Info("[DEV MAIL] Welcome Email",
		"to", toEmail,
		"name", toName,
	)
	return nil
}
