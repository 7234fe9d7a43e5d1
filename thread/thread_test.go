package thread

import (
	"reflect"
	"testing"
)

// fixtureInquiry is an inquiry that straddled the schema change: the opening
// exchange lives only in the concatenated columns, later messages are
// structured rows, and one message appears in both places.
func fixtureInquiry() RawInquiry {
	return RawInquiry{
		ID:              7,
		TenantID:        42,
		Property:        "Sunrise Lofts 4B",
		PropertyManager: "Dana",
		Status:          "in_progress",
		CreatedAt:       "2024-03-05T10:00:00Z",
		Message: "Inquiry started" +
			"\n\n--- New Message [1709632800000] ---\nHello, is the unit available?" +
			"\n\n--- New Message [1709633100000] ---\nI can come by tomorrow.",
		ResponseMessage: "\n\n--- Manager Reply [1709632980000] ---\nYes, it's available.",
		Messages: []StructuredMessage{
			{ID: 201, SenderID: 42, Sender: SenderTenant, Message: "I can come by tomorrow.", CreatedAt: "2024-03-05T10:05:00Z"},
			{ID: 202, SenderID: 9, Sender: SenderManager, Message: "See you then.", CreatedAt: "2024-03-05T10:07:30Z"},
		},
		Attachments: []Attachment{
			{ID: 31, FileName: "lease.pdf", CreatedAt: "2024-03-05T10:07:29Z"},
			{ID: 32, FileName: "noise.png", CreatedAt: "2024-03-05T09:00:00Z"},
		},
	}
}

func TestReconstructFullThread(t *testing.T) {
	got := Reconstruct(fixtureInquiry())

	want := []string{
		"Hello, is the unit available?",
		"Yes, it's available.",
		"I can come by tomorrow.",
		"See you then.",
	}
	if !reflect.DeepEqual(threadTexts(got.Messages), want) {
		t.Fatalf("expected %v, got %v", want, threadTexts(got.Messages))
	}

	// The duplicated message must survive as the structured row, not the
	// legacy fragment.
	if got.Messages[2].ID != "201" {
		t.Fatalf("expected structured row to win dedup, got id %q", got.Messages[2].ID)
	}

	// lease.pdf was uploaded one second before message 202 was sent.
	if len(got.Attached["202"]) != 1 || got.Attached["202"][0].ID != 31 {
		t.Fatalf("expected message 202 to claim the lease, got %v", got.Attached)
	}
	if len(got.Unmatched) != 1 || got.Unmatched[0].ID != 32 {
		t.Fatalf("expected the stray screenshot unmatched, got %v", got.Unmatched)
	}
}

func TestReconstructIsIdempotent(t *testing.T) {
	inq := fixtureInquiry()
	first := Reconstruct(inq)
	second := Reconstruct(inq)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("reconstruction of the same snapshot must be identical")
	}
}

func TestReconstructEmptyInquiry(t *testing.T) {
	got := Reconstruct(RawInquiry{ID: 1, CreatedAt: "2024-03-05T10:00:00Z"})
	if got.Messages == nil || got.Attached == nil || got.Unmatched == nil {
		t.Fatal("empty thread must still serialize as empty collections")
	}
	if len(got.Messages) != 0 {
		t.Fatalf("expected no messages, got %v", got.Messages)
	}
}

func TestReconstructPlaceholderOnlyInquiry(t *testing.T) {
	got := Reconstruct(RawInquiry{ID: 1, Message: "Inquiry started", CreatedAt: "2024-03-05T10:00:00Z"})
	if len(got.Messages) != 0 {
		t.Fatalf("placeholder seed must not render, got %v", got.Messages)
	}
}
