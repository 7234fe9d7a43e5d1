package thread

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Texts the portal frontends wrote as seed content when an inquiry was opened
// without a real first message. They are bookkeeping, not conversation.
var placeholderTexts = []string{
	"inquiry started",
	"placeholder",
	"init",
}

// Splitting is done on well-formed markers only, so a mangled delimiter (a
// truncating migration, a marker missing its trailing newline) survives into
// fragment text. These trim such residue off the edges of a fragment.
var (
	residuePattern  = `-{2,}\s*(?:New Message|Manager Reply)\s*(?:\[[^\]]*\])?\s*-{2,}`
	leadingResidue  = regexp.MustCompile(`(?i)^(?:\s*` + residuePattern + `)+`)
	trailingResidue = regexp.MustCompile(`(?i)(?:` + residuePattern + `\s*)+$`)
)

// NormalizeFragment turns one parsed fragment into a renderable message, or
// nil when the fragment has nothing worth rendering (blank after cleanup, or
// one of the known placeholder seeds).
//
// Untimed fragments get a synthetic timestamp of base plus one minute per
// list position, which keeps them in appearance order without colliding.
// index is the fragment's position in its column and also makes the id
// reproducible: the same inquiry always yields the same ids.
func NormalizeFragment(frag Fragment, sender string, base time.Time, inquiryID uint, index int) *DisplayMessage {
	text := leadingResidue.ReplaceAllString(frag.Text, "")
	text = trailingResidue.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if slices.Contains(placeholderTexts, strings.ToLower(text)) {
		return nil
	}

	at := frag.At
	if at.IsZero() {
		at = base.Add(time.Duration(index) * time.Minute)
	}
	at = at.UTC()

	return &DisplayMessage{
		ID:        fmt.Sprintf("%d-%s-%d", inquiryID, sender, index),
		Sender:    sender,
		Text:      text,
		Time:      at.Format("15:04"),
		CreatedAt: at.Format(time.RFC3339Nano),
	}
}
