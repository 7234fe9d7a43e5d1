package thread

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MergeThread folds the three message sources into one deduplicated,
// chronologically sorted list. Structured rows win dedup ties because they
// are appended first; the legacy columns usually contain the same messages
// again for inquiries that straddled the schema change.
func MergeThread(structured []StructuredMessage, tenantFrags, managerFrags []Fragment, inq RawInquiry) []DisplayMessage {
	base := fallbackBase(inq)

	merged := make([]DisplayMessage, 0, len(structured)+len(tenantFrags)+len(managerFrags))
	for _, row := range structured {
		if dm := fromStructured(row, inq.TenantID); dm != nil {
			merged = append(merged, *dm)
		}
	}
	for i, frag := range tenantFrags {
		if dm := NormalizeFragment(frag, SenderTenant, base, inq.ID, i); dm != nil {
			merged = append(merged, *dm)
		}
	}
	for i, frag := range managerFrags {
		if dm := NormalizeFragment(frag, SenderManager, base, inq.ID, i); dm != nil {
			merged = append(merged, *dm)
		}
	}

	merged = dedupMessages(merged)
	sortByResolvedTime(merged)
	return merged
}

// fromStructured maps a message row onto the display shape. Rows written
// before the sender column existed are attributed by comparing sender_id with
// the inquiry's tenant.
func fromStructured(row StructuredMessage, tenantID uint) *DisplayMessage {
	text := strings.TrimSpace(row.Message)
	if text == "" {
		return nil
	}
	for _, p := range placeholderTexts {
		if strings.EqualFold(text, p) {
			return nil
		}
	}

	sender := row.Sender
	if sender != SenderTenant && sender != SenderManager {
		if row.SenderID == tenantID {
			sender = SenderTenant
		} else {
			sender = SenderManager
		}
	}

	at, ok := parseISO(row.CreatedAt)
	if !ok {
		log.Printf("thread: message %d has unparseable created_at %q", row.ID, row.CreatedAt)
		at = time.UnixMilli(0).UTC()
	}
	return &DisplayMessage{
		ID:        strconv.FormatUint(uint64(row.ID), 10),
		Sender:    sender,
		Text:      text,
		Time:      at.UTC().Format("15:04"),
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
	}
}

// fallbackBase anchors synthetic timestamps for untimed fragments. The
// inquiry's own creation time is the best available stand-in; an inquiry
// without one sorts its untimed history to the front.
func fallbackBase(inq RawInquiry) time.Time {
	if at, ok := parseISO(inq.CreatedAt); ok {
		return at
	}
	return time.UnixMilli(0).UTC()
}

// dedupMessages keeps the first occurrence of each sender+text pair. Order
// is otherwise preserved, so structured rows shadow their legacy duplicates.
func dedupMessages(messages []DisplayMessage) []DisplayMessage {
	seen := make(map[string]bool, len(messages))
	out := messages[:0]
	for _, m := range messages {
		key := m.Sender + "-" + m.Text
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// sortByResolvedTime sorts ascending and stable, so messages whose resolved
// times tie keep their source order.
func sortByResolvedTime(messages []DisplayMessage) {
	type keyed struct {
		at  int64
		msg DisplayMessage
	}
	ordered := make([]keyed, len(messages))
	for i, m := range messages {
		ordered[i] = keyed{resolveTime(m).UnixMilli(), m}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].at < ordered[j].at })
	for i, k := range ordered {
		messages[i] = k.msg
	}
}

// resolveTime produces the instant a message is ordered by. created_at is
// authoritative; a legacy row that only carries a display time is pinned to a
// fixed date so such rows at least order correctly among themselves; anything
// else sorts first.
func resolveTime(m DisplayMessage) time.Time {
	if at, ok := parseISO(m.CreatedAt); ok {
		return at
	}
	if m.Time != "" {
		if at, err := time.Parse("15:04", m.Time); err == nil {
			return time.Date(2000, time.January, 1, at.Hour(), at.Minute(), 0, 0, time.UTC)
		}
	}
	return time.UnixMilli(0).UTC()
}

// parseISO accepts RFC3339 with or without fractional seconds, which covers
// both what the database serializes and what Format in this package emits.
func parseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
