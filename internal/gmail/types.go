package gmail

import "time"

type Profile struct {
	EmailAddress  string
	MessagesTotal int64
}

// WireMessage is a fully composed outgoing message: the base64url-encoded
// RFC 2822 payload plus the thread to attach it to (replies only).
type WireMessage struct {
	Raw      string
	ThreadID string
}

type MessageSummary struct {
	ID       string
	ThreadID string
	Subject  string
	From     string
	To       []string
	Date     time.Time
	Snippet  string
	Labels   []string
	Unread   bool
}

type Message struct {
	MessageSummary
	Cc          []string
	ReplyTo     string
	BodyText    string
	BodyHTML    string
	RFC822ID    string // Message-ID header
	References  []string
	Attachments []AttachmentInfo
}

type AttachmentInfo struct {
	ID        string
	MessageID string
	Filename  string
	MIMEType  string
	Size      int64
}

type SearchPage struct {
	Messages      []MessageSummary
	NextPageToken string
	SizeEstimate  int64
}

type DraftSummary struct {
	ID        string
	MessageID string
	ThreadID  string
	To        string
	Cc        string
	Subject   string
	Snippet   string
}

type DraftDetail struct {
	DraftSummary
	BodyText    string
	BodyHTML    string
	Attachments []AttachmentInfo
}

type SendResult struct {
	MessageID string
	ThreadID  string
}
