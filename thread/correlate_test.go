package thread

import (
	"testing"
)

func corrMessages() []DisplayMessage {
	return []DisplayMessage{
		{ID: "m1", CreatedAt: "2024-03-05T12:00:00Z"},
		{ID: "m2", CreatedAt: "2024-03-05T12:00:05Z"},
	}
}

func TestCorrelateClaimsWithinWindow(t *testing.T) {
	attachments := []Attachment{
		{ID: 1, CreatedAt: "2024-03-05T11:59:58.5Z"}, // 1500ms before m1
		{ID: 2, CreatedAt: "2024-03-05T12:00:00Z"},   // exactly at m1
		{ID: 3, CreatedAt: "2024-03-05T12:00:04Z"},   // 1000ms before m2
	}

	got := Correlate(corrMessages(), attachments)
	if len(got.Attached["m1"]) != 2 {
		t.Fatalf("expected m1 to claim 2 attachments, got %v", got.Attached["m1"])
	}
	if len(got.Attached["m2"]) != 1 || got.Attached["m2"][0].ID != 3 {
		t.Fatalf("expected m2 to claim attachment 3, got %v", got.Attached["m2"])
	}
	if len(got.Unmatched) != 0 {
		t.Fatalf("expected no unmatched attachments, got %v", got.Unmatched)
	}
}

func TestCorrelateWindowIsHalfOpen(t *testing.T) {
	attachments := []Attachment{
		{ID: 1, CreatedAt: "2024-03-05T11:59:58Z"}, // exactly 2000ms before m1
		{ID: 2, CreatedAt: "2024-03-05T12:00:01Z"}, // after m1, 4000ms before m2
	}

	got := Correlate(corrMessages(), attachments)
	if len(got.Attached) != 0 {
		t.Fatalf("nothing should match, got %v", got.Attached)
	}
	if len(got.Unmatched) != 2 {
		t.Fatalf("expected 2 unmatched, got %v", got.Unmatched)
	}
}

func TestCorrelateEarliestMessageWins(t *testing.T) {
	// Qualifies for both m1 and a hypothetical later message; m1 is visited
	// first and the attachment must not be claimed twice.
	messages := []DisplayMessage{
		{ID: "m1", CreatedAt: "2024-03-05T12:00:00Z"},
		{ID: "m2", CreatedAt: "2024-03-05T12:00:01Z"},
	}
	attachments := []Attachment{{ID: 1, CreatedAt: "2024-03-05T11:59:59.5Z"}}

	got := Correlate(messages, attachments)
	if len(got.Attached["m1"]) != 1 {
		t.Fatalf("m1 should claim the attachment, got %v", got.Attached)
	}
	if len(got.Attached["m2"]) != 0 {
		t.Fatalf("attachment claimed twice: %v", got.Attached)
	}
}

func TestCorrelateNoMessages(t *testing.T) {
	attachments := []Attachment{{ID: 1, CreatedAt: "2024-03-05T12:00:00Z"}}
	got := Correlate(nil, attachments)
	if len(got.Unmatched) != 1 {
		t.Fatalf("without messages every attachment is unmatched, got %v", got.Unmatched)
	}
	if got.Unmatched == nil || got.Attached == nil {
		t.Fatal("result collections must be non-nil for JSON rendering")
	}
}

func TestCorrelateUnparseableTimestampsNeverMatch(t *testing.T) {
	messages := []DisplayMessage{{ID: "m1", CreatedAt: "soon"}}
	attachments := []Attachment{
		{ID: 1, CreatedAt: "2024-03-05T12:00:00Z"},
		{ID: 2, CreatedAt: ""},
	}
	got := Correlate(messages, attachments)
	if len(got.Unmatched) != 2 {
		t.Fatalf("expected both unmatched, got %v", got.Unmatched)
	}
}
