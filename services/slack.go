package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	slackapi "github.com/slack-go/slack"
)

// slackMaxRetries is the max number of retries for rate-limited API calls.
const slackMaxRetries = 3

// SlackService posts operational alerts to the staff channel. All methods are
// no-ops when SLACK_BOT_TOKEN is unset so local development needs no Slack
// workspace.
type SlackService struct {
	client  *slackapi.Client
	channel string
}

var SlackServiceInstance = &SlackService{}

// InitializeSlack reads the Slack configuration. Called from main after the
// environment is loaded.
func InitializeSlack() {
	token := os.Getenv("SLACK_BOT_TOKEN")
	channel := os.Getenv("SLACK_STAFF_CHANNEL")
	if token == "" || channel == "" {
		log.Println("⚠️  Slack not configured, staff alerts disabled")
		return
	}
	SlackServiceInstance = &SlackService{
		client:  slackapi.New(token),
		channel: channel,
	}
	log.Println("🔧 Slack staff alerts initialized for channel", channel)
}

func (s *SlackService) enabled() bool {
	return s != nil && s.client != nil
}

// NotifyNewInquiry alerts staff that a tenant opened an inquiry.
func (s *SlackService) NotifyNewInquiry(inquiryID uint, tenantName, unitName, subject string) {
	if !s.enabled() {
		return
	}
	att := slackapi.Attachment{
		Title:    fmt.Sprintf("New inquiry #%d", inquiryID),
		Text:     subject,
		Color:    "#36a64f",
		Fallback: fmt.Sprintf("New inquiry #%d from %s", inquiryID, tenantName),
		Fields: []slackapi.AttachmentField{
			{Title: "Tenant", Value: tenantName, Short: true},
			{Title: "Unit", Value: unitName, Short: true},
		},
	}
	s.post(slackapi.MsgOptionText(fmt.Sprintf("Inquiry #%d opened", inquiryID), false),
		slackapi.MsgOptionAttachments(att))
}

// NotifyUrgentMaintenance alerts staff about an urgent maintenance request.
func (s *SlackService) NotifyUrgentMaintenance(requestID uint, unitName, title string) {
	if !s.enabled() {
		return
	}
	att := slackapi.Attachment{
		Title:    fmt.Sprintf("Urgent maintenance #%d", requestID),
		Text:     title,
		Color:    "#d00000",
		Fallback: fmt.Sprintf("Urgent maintenance #%d at %s", requestID, unitName),
		Fields: []slackapi.AttachmentField{
			{Title: "Unit", Value: unitName, Short: true},
		},
	}
	s.post(slackapi.MsgOptionText(fmt.Sprintf("🚨 Urgent maintenance #%d", requestID), false),
		slackapi.MsgOptionAttachments(att))
}

// NotifyStaleInquiries reports how many inquiries the nightly sweep closed.
func (s *SlackService) NotifyStaleInquiries(closed int64) {
	if !s.enabled() || closed == 0 {
		return
	}
	s.post(slackapi.MsgOptionText(
		fmt.Sprintf("Nightly sweep closed %d resolved inquiries", closed), false))
}

func (s *SlackService) post(options ...slackapi.MsgOption) {
	err := retryOnRateLimit(func() error {
		_, _, postErr := s.client.PostMessage(s.channel, options...)
		return postErr
	})
	if err != nil {
		log.Printf("❌ SLACK ERROR: failed to post staff alert: %v", err)
	}
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit
// errors, honoring the RetryAfter duration Slack returns.
func retryOnRateLimit(fn func() error) error {
	for attempt := 0; attempt <= slackMaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err // not a rate limit error, don't retry
		}

		if attempt == slackMaxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		time.Sleep(wait)
	}
	return nil
}
