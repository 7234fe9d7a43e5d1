package utils

import (
	"context"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// SendMail delivers a transactional email through Mailgun. Returns false when
// delivery was not attempted or failed.
func SendMail(to string, subject string, html string) (bool, error) {
	mg := mailgun.NewMailgun(os.Getenv("MAILGUN_DOMAIN"), os.Getenv("MAILGUN_API_KEY"))

	message := mg.NewMessage(os.Getenv("MAILGUN_EMAIL"), subject, "", to)
	message.SetHtml(html)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	_, _, err := mg.Send(ctx, message)
	if err != nil {
		return false, err
	}

	return true, nil
}
