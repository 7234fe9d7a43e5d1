// Package thread rebuilds a displayable inquiry conversation out of the two
// storage schemes the portal has accumulated: the legacy scheme, where every
// tenant message was appended into the inquiry's single `message` column and
// every manager reply into `response_message` (separated by in-band markers),
// and the newer scheme, where each message is its own row. The result is one
// chronological thread with attachments correlated to the messages they were
// uploaded for.
//
// Everything in this package is a pure function over already-fetched data: no
// storage access, no globals, and malformed input degrades to best-effort
// ordering instead of returning an error.
package thread

import "time"

const (
	SenderTenant  = "tenant"
	SenderManager = "manager"
)

// RawInquiry is the inquiry record as the list endpoint returns it. The
// reconstructor only reads it.
type RawInquiry struct {
	ID              uint                `json:"id"`
	TenantID        uint                `json:"tenant_id"`
	Property        string              `json:"property"`
	PropertyManager string              `json:"property_manager"`
	Status          string              `json:"status"`
	Message         string              `json:"message"`
	ResponseMessage string              `json:"response_message"`
	Messages        []StructuredMessage `json:"messages"`
	Attachments     []Attachment        `json:"attachments"`
	CreatedAt       string              `json:"created_at"`
}

// StructuredMessage is a first-class message row. Only inquiries created
// after the structured table existed have them; older inquiries carry their
// whole conversation in the concatenated columns.
type StructuredMessage struct {
	ID        uint   `json:"id"`
	SenderID  uint   `json:"sender_id"`
	Sender    string `json:"sender"` // "tenant" | "manager" | "" (infer from sender_id)
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// Fragment is one unit of conversation cut out of a concatenated column.
// A zero At means the surrounding marker carried no usable timestamp.
type Fragment struct {
	Text string
	At   time.Time
}

// DisplayMessage is what the client renders as a single chat bubble.
type DisplayMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Time      string `json:"time"`       // HH:MM, UTC; clients localize from created_at
	CreatedAt string `json:"created_at"` // RFC3339
}

// Attachment is an uploaded file record, correlated read-only.
type Attachment struct {
	ID         uint   `json:"id"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	MimeType   string `json:"mime_type"`
	FileType   string `json:"file_type"`
	URL        string `json:"url"`
	UploadedBy uint   `json:"uploaded_by"`
	CreatedAt  string `json:"created_at"`
}

// Thread is the reconstruction output handed to the rendering layer.
type Thread struct {
	Messages  []DisplayMessage        `json:"messages"`
	Attached  map[string][]Attachment `json:"attached"`
	Unmatched []Attachment            `json:"unmatched"`
}

// Reconstruct runs the whole pipeline over one inquiry snapshot: split both
// legacy columns, merge with the structured rows, then correlate attachments.
// Safe to call repeatedly; identical input yields identical output.
func Reconstruct(inq RawInquiry) Thread {
	tenantFrags := ParseMarkedText(inq.Message, NewMessageMarker)
	managerFrags := ParseMarkedText(inq.ResponseMessage, ManagerReplyMarker)

	messages := MergeThread(inq.Messages, tenantFrags, managerFrags, inq)
	correlated := Correlate(messages, inq.Attachments)

	return Thread{
		Messages:  messages,
		Attached:  correlated.Attached,
		Unmatched: correlated.Unmatched,
	}
}
