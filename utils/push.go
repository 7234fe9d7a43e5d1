package utils

import (
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// SendNotification pushes one message to one Expo token. Callers fan out over
// a user's tokens and tolerate per-token failures.
func SendNotification(token string, title string, body string, data map[string]string) error {
	pushToken, err := expo.NewExponentPushToken(token)
	if err != nil {
		return err
	}

	client := expo.NewPushClient(nil)

	response, err := client.Publish(
		&expo.PushMessage{
			To:       []expo.ExponentPushToken{pushToken},
			Body:     body,
			Data:     data,
			Sound:    "default",
			Title:    title,
			Priority: expo.DefaultPriority,
		},
	)
	if err != nil {
		return err
	}

	if validationErr := response.ValidateResponse(); validationErr != nil {
		return validationErr
	}

	return nil
}
