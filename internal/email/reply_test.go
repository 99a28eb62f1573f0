package email

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"gmailcli/internal/gmail"
)

func TestExtractReplyInfo(t *testing.T) {
	raw := []byte("Message-ID: <orig@example.com>\r\n" +
		"References: <root@example.com>\r\n" +
		"From: Alice <alice@example.com>\r\n" +
		"Reply-To: alice-lists@example.com\r\n" +
		"To: bob@example.com, Carol <carol@example.com>\r\n" +
		"Cc: dave@example.com\r\n" +
		"Date: Mon, 12 Jan 2026 10:00:00 +0000\r\n" +
		"Subject: Quarterly numbers\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Please review.\r\n")

	info, err := ExtractReplyInfo(raw, true)
	if err != nil {
		t.Fatalf("extract reply info: %v", err)
	}
	if info.MessageID != "<orig@example.com>" {
		t.Fatalf("message id = %q", info.MessageID)
	}
	if !reflect.DeepEqual(info.References, []string{"<root@example.com>"}) {
		t.Fatalf("references = %v", info.References)
	}
	if !reflect.DeepEqual(info.To, []string{"bob@example.com", "carol@example.com"}) {
		t.Fatalf("to = %v", info.To)
	}
	if !strings.Contains(info.Body, "Please review.") {
		t.Fatalf("body = %q", info.Body)
	}
}

func TestReplyInfoFromMessage(t *testing.T) {
	msg := &gmail.Message{
		MessageSummary: gmail.MessageSummary{
			ThreadID: "t7",
			Subject:  "Numbers",
			From:     "Alice <alice@example.com>",
			To:       []string{"bob@example.com"},
			Date:     time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC),
		},
		RFC822ID:   "<m7@example.com>",
		References: []string{"<m6@example.com>"},
		BodyText:   "the numbers",
	}

	info := ReplyInfoFromMessage(msg)
	if info.ThreadID != "t7" || info.MessageID != "<m7@example.com>" {
		t.Fatalf("info = %+v", info)
	}
	if !reflect.DeepEqual(info.References, []string{"<m6@example.com>"}) {
		t.Fatalf("references = %v", info.References)
	}
	if info.Date == "" {
		t.Fatal("date should be rendered for quoting")
	}
}

func TestBuildReplyHeaders(t *testing.T) {
	info := &ReplyInfo{
		MessageID:  "<m2@example.com>",
		References: []string{"<m1@example.com>"},
	}
	inReplyTo, refs := BuildReplyHeaders(info)
	if inReplyTo != "<m2@example.com>" {
		t.Fatalf("in-reply-to = %q", inReplyTo)
	}
	if !reflect.DeepEqual(refs, []string{"<m1@example.com>", "<m2@example.com>"}) {
		t.Fatalf("references = %v", refs)
	}

	// Already present in the chain: never appended twice.
	info.References = []string{"<m1@example.com>", "<m2@example.com>"}
	_, refs = BuildReplyHeaders(info)
	if !reflect.DeepEqual(refs, []string{"<m1@example.com>", "<m2@example.com>"}) {
		t.Fatalf("references after dedupe = %v", refs)
	}
}

func TestBuildReplyRecipientsPrefersReplyTo(t *testing.T) {
	info := &ReplyInfo{
		From:    "Alice <alice@example.com>",
		ReplyTo: "alice-lists@example.com",
	}
	got := BuildReplyRecipients(info, "me@example.com")
	if !reflect.DeepEqual(got, []string{"alice-lists@example.com"}) {
		t.Fatalf("recipients = %v", got)
	}
}

func TestBuildReplyAllRecipients(t *testing.T) {
	info := &ReplyInfo{
		From: "alice@example.com",
		To:   []string{"me@example.com", "bob@example.com"},
		Cc:   []string{"carol@example.com", "alice@example.com"},
	}
	to, cc := BuildReplyAllRecipients(info, "me@example.com")
	if !reflect.DeepEqual(to, []string{"alice@example.com", "bob@example.com"}) {
		t.Fatalf("to = %v", to)
	}
	if !reflect.DeepEqual(cc, []string{"carol@example.com"}) {
		t.Fatalf("cc = %v", cc)
	}
}

func TestReplySubject(t *testing.T) {
	if got := ReplySubject("Status"); got != "Re: Status" {
		t.Fatalf("subject = %q", got)
	}
	if got := ReplySubject("RE: Status"); got != "RE: Status" {
		t.Fatalf("subject = %q", got)
	}
	if got := ReplySubject("  "); got != "" {
		t.Fatalf("subject = %q", got)
	}
}

func TestBuildReplyCarriesThread(t *testing.T) {
	original := &ReplyInfo{
		MessageID: "<m1@example.com>",
		ThreadID:  "t1",
		From:      "alice@example.com",
		Subject:   "Status",
		Date:      "Mon, 12 Jan 2026 10:00:00 +0000",
		Body:      "original text",
	}

	msg, err := BuildReply(ReplyInput{
		Original: original,
		From:     "me@example.com",
		Body:     "looks good",
		Quote:    true,
	})
	if err != nil {
		t.Fatalf("build reply: %v", err)
	}
	if msg.ThreadID != "t1" {
		t.Fatalf("thread id = %q", msg.ThreadID)
	}

	rendered := decodeRaw(t, msg.Raw)
	for _, want := range []string{
		"In-Reply-To: <m1@example.com>",
		"References: <m1@example.com>",
		"Subject: Re: Status",
		"To: alice@example.com",
		"> original text",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered reply missing %q:\n%s", want, rendered)
		}
	}
}

func TestApplyQuoteToBodiesPlain(t *testing.T) {
	info := &ReplyInfo{
		From: "alice@example.com",
		Date: "Mon, 12 Jan 2026 10:00:00 +0000",
		Body: "line one\nline two",
	}
	plain, _ := ApplyQuoteToBodies("my reply", "", true, info)
	if !strings.Contains(plain, "my reply") {
		t.Fatalf("quoted body lost the reply: %q", plain)
	}
	if !strings.Contains(plain, "> line one") || !strings.Contains(plain, "> line two") {
		t.Fatalf("quoted body missing quote markers: %q", plain)
	}
}

func TestStripHTMLTags(t *testing.T) {
	in := `<html><style>p{}</style><body><p>Hello <b>world</b></p><script>x()</script></body></html>`
	if got := StripHTMLTags(in); got != "Hello world" {
		t.Fatalf("stripped = %q", got)
	}
}
