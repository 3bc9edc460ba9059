package mailer

type Service interface {
	SendWelcomeEmail(toEmail, toName string) error
}
