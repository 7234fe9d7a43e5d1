package thread

import (
	"testing"
	"time"
)

var normalizeBase = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func TestNormalizeFragmentDropsBlankAndPlaceholder(t *testing.T) {
	for _, text := range []string{
		"",
		"   \n\t  ",
		"Inquiry started",
		"INQUIRY STARTED",
		"  placeholder  ",
		"init",
	} {
		if got := NormalizeFragment(Fragment{Text: text}, SenderTenant, normalizeBase, 7, 0); got != nil {
			t.Fatalf("%q should normalize to nothing, got %+v", text, got)
		}
	}
}

func TestNormalizeFragmentKeepsNearPlaceholderText(t *testing.T) {
	got := NormalizeFragment(Fragment{Text: "initial question"}, SenderTenant, normalizeBase, 7, 0)
	if got == nil {
		t.Fatal("only exact placeholder texts may be dropped")
	}
	if got.Text != "initial question" {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestNormalizeFragmentStripsMarkerResidue(t *testing.T) {
	cases := map[string]string{
		"--- New Message ---\nHello":                  "Hello",
		"Hello\n\n--- New Message [99] ---":           "Hello",
		"--- manager reply [x] ---Thanks":             "Thanks",
		"--- New Message ------ Manager Reply ---\nA": "A",
	}
	for in, want := range cases {
		got := NormalizeFragment(Fragment{Text: in}, SenderManager, normalizeBase, 7, 2)
		if got == nil {
			t.Fatalf("%q: expected a message", in)
		}
		if got.Text != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got.Text)
		}
	}
}

func TestNormalizeFragmentSyntheticTimeFromIndex(t *testing.T) {
	got := NormalizeFragment(Fragment{Text: "untimed"}, SenderTenant, normalizeBase, 7, 3)
	if got == nil {
		t.Fatal("expected a message")
	}
	if got.CreatedAt != "2024-03-05T10:03:00Z" {
		t.Fatalf("expected base plus three minutes, got %q", got.CreatedAt)
	}
	if got.Time != "10:03" {
		t.Fatalf("unexpected display time %q", got.Time)
	}
	if got.ID != "7-tenant-3" {
		t.Fatalf("unexpected id %q", got.ID)
	}
}

func TestNormalizeFragmentTimedFragmentKeepsItsTime(t *testing.T) {
	at := time.UnixMilli(1709633100000)
	got := NormalizeFragment(Fragment{Text: "timed", At: at}, SenderManager, normalizeBase, 7, 5)
	if got == nil {
		t.Fatal("expected a message")
	}
	if got.CreatedAt != "2024-03-05T10:05:00Z" {
		t.Fatalf("marker time must win over the synthetic one, got %q", got.CreatedAt)
	}
	if got.ID != "7-manager-5" {
		t.Fatalf("unexpected id %q", got.ID)
	}
}
