package thread

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Marker is one in-band delimiter family. The legacy append code wrote
// "\n\n--- <Label> [<unix millis>] ---\n" in front of every message it packed
// into a concatenated column; very old rows predate the bracketed timestamp.
type Marker struct {
	Label string
	re    *regexp.Regexp
}

var (
	NewMessageMarker   = newMarker("New Message")
	ManagerReplyMarker = newMarker("Manager Reply")
)

func newMarker(label string) Marker {
	return Marker{
		Label: label,
		re:    regexp.MustCompile(`\n\n--- ` + regexp.QuoteMeta(label) + `(?: \[(\d*)\])? ---\n`),
	}
}

// Format renders the delimiter the way the append path writes it, so writer
// and parser cannot drift apart.
func (m Marker) Format(at time.Time) string {
	return fmt.Sprintf("\n\n--- %s [%d] ---\n", m.Label, at.UnixMilli())
}

// ParseMarkedText splits one concatenated column into ordered fragments.
//
// A marker's timestamp belongs to the text that FOLLOWS it, so the timestamp
// is held pending until the next chunk of text is emitted. Text before the
// first marker (the inquiry's original message) has no timestamp. Without any
// marker the whole string is a single untimed fragment. A marker whose
// bracket is absent or empty contributes a fragment with a zero time.
func ParseMarkedText(raw string, marker Marker) []Fragment {
	if raw == "" {
		return nil
	}

	locs := marker.re.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return []Fragment{{Text: raw}}
	}

	fragments := make([]Fragment, 0, len(locs)+1)
	var pending time.Time
	cursor := 0
	for _, loc := range locs {
		if chunk := raw[cursor:loc[0]]; chunk != "" {
			fragments = append(fragments, Fragment{Text: chunk, At: pending})
		}
		pending = time.Time{}
		if loc[2] >= 0 {
			if ms, err := strconv.ParseInt(raw[loc[2]:loc[3]], 10, 64); err == nil {
				pending = time.UnixMilli(ms).UTC()
			}
		}
		cursor = loc[1]
	}
	if tail := raw[cursor:]; tail != "" {
		fragments = append(fragments, Fragment{Text: tail, At: pending})
	}
	return fragments
}
