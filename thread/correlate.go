package thread

import "time"

// Attachments are uploaded moments before the message that references them is
// sent, so an attachment belongs to the first message sent within this window
// after the upload.
const attachClaimWindow = 2000 * time.Millisecond

// CorrelationResult maps display message ids to the attachments they claimed.
// Attachments nothing claimed are listed separately so the client can still
// render them at the end of the thread.
type CorrelationResult struct {
	Attached  map[string][]Attachment
	Unmatched []Attachment
}

// Correlate assigns each attachment to at most one message. Messages are
// visited in thread order and the earliest qualifying message wins; an
// already claimed attachment is never reassigned. Attachments or messages
// without a parseable timestamp never match.
func Correlate(messages []DisplayMessage, attachments []Attachment) CorrelationResult {
	result := CorrelationResult{
		Attached:  map[string][]Attachment{},
		Unmatched: []Attachment{},
	}
	if len(messages) == 0 {
		result.Unmatched = append(result.Unmatched, attachments...)
		return result
	}

	claimed := make(map[uint]bool, len(attachments))
	for _, m := range messages {
		sentAt, ok := parseISO(m.CreatedAt)
		if !ok {
			continue
		}
		for _, a := range attachments {
			if claimed[a.ID] {
				continue
			}
			uploadedAt, ok := parseISO(a.CreatedAt)
			if !ok {
				continue
			}
			gap := sentAt.Sub(uploadedAt)
			if gap >= 0 && gap < attachClaimWindow {
				result.Attached[m.ID] = append(result.Attached[m.ID], a)
				claimed[a.ID] = true
			}
		}
	}

	for _, a := range attachments {
		if !claimed[a.ID] {
			result.Unmatched = append(result.Unmatched, a)
		}
	}
	return result
}
