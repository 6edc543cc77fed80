package mailer

import (
	"airattix/src/lib"
	"log"
	"os"
)

// NewMailerMessage delivers mail in the background so request handlers never
// block on SMTP. When SMTP_HOST is unset the message is logged and dropped,
// which keeps local and test runs silent on the wire.
func NewMailerMessage(input *lib.SendMailInput) error {
	if os.Getenv("SMTP_HOST") == "" {
		log.Printf("[mailer] SMTP not configured, skipping mail to %v: %s\n", input.To, input.Subject)
		return nil
	}
	if input.From == "" {
		input.From = os.Getenv("SMTP_FROM")
	}
	if input.FromName == "" {
		input.FromName = os.Getenv("SMTP_FROM_NAME")
	}
	go func() {
		if err := lib.SendMail(input); err != nil {
			log.Printf("[mailer] Failed to send mail to %v: %s\n", input.To, err.Error())
		}
	}()
	return nil
}
