package thread

import (
	"testing"
	"time"
)

func TestParseMarkedTextEmptyInput(t *testing.T) {
	if got := ParseMarkedText("", NewMessageMarker); got != nil {
		t.Fatalf("expected no fragments, got %v", got)
	}
}

func TestParseMarkedTextNoMarker(t *testing.T) {
	got := ParseMarkedText("just one message", NewMessageMarker)
	if len(got) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(got))
	}
	if got[0].Text != "just one message" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
	if !got[0].At.IsZero() {
		t.Fatalf("fragment without marker should be untimed, got %v", got[0].At)
	}
}

func TestParseMarkedTextTimestampBindsToFollowingText(t *testing.T) {
	raw := "first\n\n--- New Message [1709633100000] ---\nsecond"
	got := ParseMarkedText(raw, NewMessageMarker)
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got))
	}
	if got[0].Text != "first" || !got[0].At.IsZero() {
		t.Fatalf("text before the first marker must be untimed, got %+v", got[0])
	}
	if got[1].Text != "second" {
		t.Fatalf("unexpected second fragment %q", got[1].Text)
	}
	want := time.UnixMilli(1709633100000).UTC()
	if !got[1].At.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got[1].At)
	}
}

func TestParseMarkedTextMarkerWithoutTimestamp(t *testing.T) {
	for _, raw := range []string{
		"a\n\n--- New Message ---\nb",
		"a\n\n--- New Message [] ---\nb",
	} {
		got := ParseMarkedText(raw, NewMessageMarker)
		if len(got) != 2 {
			t.Fatalf("%q: expected 2 fragments, got %d", raw, len(got))
		}
		if !got[1].At.IsZero() {
			t.Fatalf("%q: marker without millis must yield untimed fragment", raw)
		}
	}
}

func TestParseMarkedTextLeadingMarker(t *testing.T) {
	raw := "\n\n--- Manager Reply [1709632980000] ---\nYes, it's available."
	got := ParseMarkedText(raw, ManagerReplyMarker)
	if len(got) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(got))
	}
	if got[0].Text != "Yes, it's available." {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
	if got[0].At.UnixMilli() != 1709632980000 {
		t.Fatalf("unexpected time %v", got[0].At)
	}
}

func TestParseMarkedTextAdjacentMarkersDropOrphanTimestamp(t *testing.T) {
	raw := "a\n\n--- New Message [1000] ---\n\n\n--- New Message [2000] ---\nb"
	got := ParseMarkedText(raw, NewMessageMarker)
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got))
	}
	if got[1].At.UnixMilli() != 2000 {
		t.Fatalf("text after back-to-back markers must take the nearest timestamp, got %v", got[1].At)
	}
}

func TestParseMarkedTextIgnoresOtherFamily(t *testing.T) {
	raw := "a\n\n--- Manager Reply [1000] ---\nb"
	got := ParseMarkedText(raw, NewMessageMarker)
	if len(got) != 1 {
		t.Fatalf("tenant parser must not split on manager markers, got %d fragments", len(got))
	}
}

func TestMarkerFormatRoundTrips(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 5, 0, 0, time.UTC)
	raw := "original" + NewMessageMarker.Format(at) + "appended"
	got := ParseMarkedText(raw, NewMessageMarker)
	if len(got) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got))
	}
	if !got[1].At.Equal(at) {
		t.Fatalf("expected %v back, got %v", at, got[1].At)
	}
}
