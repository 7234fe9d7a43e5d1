package thread

import (
	"reflect"
	"testing"
)

func threadTexts(messages []DisplayMessage) []string {
	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Text)
	}
	return texts
}

func TestMergeThreadStructuredOnly(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	rows := []StructuredMessage{
		{ID: 102, SenderID: 9, Message: "Sure, come at noon.", CreatedAt: "2024-03-05T10:04:00Z"},
		{ID: 101, SenderID: 42, Message: "Can I visit?", CreatedAt: "2024-03-05T10:01:00Z"},
	}

	got := MergeThread(rows, nil, nil, inq)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].ID != "101" || got[0].Sender != SenderTenant {
		t.Fatalf("expected tenant row 101 first, got %+v", got[0])
	}
	if got[1].ID != "102" || got[1].Sender != SenderManager {
		t.Fatalf("expected inferred manager row second, got %+v", got[1])
	}
	if got[0].Time != "10:01" {
		t.Fatalf("unexpected display time %q", got[0].Time)
	}
}

func TestMergeThreadLegacyColumnsInterleave(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	tenant := ParseMarkedText(
		"Hello, is the unit available?\n\n--- New Message [1709633100000] ---\nI can come by tomorrow.",
		NewMessageMarker)
	manager := ParseMarkedText(
		"\n\n--- Manager Reply [1709632980000] ---\nYes, it's available.",
		ManagerReplyMarker)

	got := MergeThread(nil, tenant, manager, inq)
	want := []string{"Hello, is the unit available?", "Yes, it's available.", "I can come by tomorrow."}
	if !reflect.DeepEqual(threadTexts(got), want) {
		t.Fatalf("expected order %v, got %v", want, threadTexts(got))
	}
	if got[0].ID != "7-tenant-0" || got[1].ID != "7-manager-0" || got[2].ID != "7-tenant-1" {
		t.Fatalf("unexpected ids %q %q %q", got[0].ID, got[1].ID, got[2].ID)
	}
	// Untimed initial message is pinned to the inquiry's creation time.
	if got[0].CreatedAt != "2024-03-05T10:00:00Z" {
		t.Fatalf("unexpected synthetic created_at %q", got[0].CreatedAt)
	}
}

func TestMergeThreadDedupPrefersStructuredRow(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	rows := []StructuredMessage{
		{ID: 101, SenderID: 42, Sender: SenderTenant, Message: "Can I visit?", CreatedAt: "2024-03-05T10:01:00Z"},
	}
	tenant := ParseMarkedText("Can I visit?", NewMessageMarker)

	got := MergeThread(rows, tenant, nil, inq)
	if len(got) != 1 {
		t.Fatalf("duplicate should collapse, got %d messages", len(got))
	}
	if got[0].ID != "101" {
		t.Fatalf("structured row must win, got id %q", got[0].ID)
	}
}

func TestMergeThreadSameTextDifferentSenderKept(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	tenant := ParseMarkedText("ok", NewMessageMarker)
	manager := ParseMarkedText("ok", ManagerReplyMarker)

	got := MergeThread(nil, tenant, manager, inq)
	if len(got) != 2 {
		t.Fatalf("same text from different senders is not a duplicate, got %d", len(got))
	}
}

func TestMergeThreadStableTieKeepsSourceOrder(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	tenant := ParseMarkedText("first untimed", NewMessageMarker)
	manager := ParseMarkedText("also untimed", ManagerReplyMarker)

	// Both resolve to base+0m; tenant fragments are appended first.
	got := MergeThread(nil, tenant, manager, inq)
	if got[0].Sender != SenderTenant || got[1].Sender != SenderManager {
		t.Fatalf("tie must keep source order, got %q then %q", got[0].Sender, got[1].Sender)
	}
}

func TestMergeThreadSkipsPlaceholderStructuredRow(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42}
	rows := []StructuredMessage{
		{ID: 100, SenderID: 42, Message: "Inquiry started", CreatedAt: "2024-03-05T10:00:00Z"},
		{ID: 101, SenderID: 42, Message: "real question", CreatedAt: "2024-03-05T10:01:00Z"},
	}
	got := MergeThread(rows, nil, nil, inq)
	if len(got) != 1 || got[0].ID != "101" {
		t.Fatalf("placeholder rows must be dropped, got %+v", got)
	}
}

func TestResolveTimeFallbackChain(t *testing.T) {
	withCreated := DisplayMessage{CreatedAt: "2024-03-05T10:00:00Z", Time: "23:59"}
	if resolveTime(withCreated).UnixMilli() != 1709632800000 {
		t.Fatal("created_at must be authoritative")
	}

	timeOnly := DisplayMessage{Time: "09:30"}
	at := resolveTime(timeOnly)
	if at.Hour() != 9 || at.Minute() != 30 {
		t.Fatalf("display time fallback broken, got %v", at)
	}

	onlyLater := DisplayMessage{Time: "09:31"}
	if !resolveTime(timeOnly).Before(resolveTime(onlyLater)) {
		t.Fatal("display-time-only messages must order among themselves")
	}

	neither := DisplayMessage{CreatedAt: "not a date", Time: "nope"}
	if resolveTime(neither).UnixMilli() != 0 {
		t.Fatalf("unparseable message must sort to the epoch, got %v", resolveTime(neither))
	}
}

func TestMergeThreadUnparseableCreatedAtSortsFirst(t *testing.T) {
	inq := RawInquiry{ID: 7, TenantID: 42, CreatedAt: "2024-03-05T10:00:00Z"}
	rows := []StructuredMessage{
		{ID: 101, SenderID: 42, Message: "good date", CreatedAt: "2024-03-05T10:01:00Z"},
		{ID: 102, SenderID: 42, Message: "bad date", CreatedAt: "yesterday-ish"},
	}
	got := MergeThread(rows, nil, nil, inq)
	if got[0].Text != "bad date" {
		t.Fatalf("row without a usable timestamp sorts first, got %v", threadTexts(got))
	}
}
