package email

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/mail"
	"regexp"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"gmailcli/internal/gmail"
	"gmailcli/internal/mailerr"
)

// ReplyInfo carries everything a reply needs from the original message:
// threading identifiers, addressing, and optionally the bodies for quoting.
type ReplyInfo struct {
	MessageID  string
	References []string
	ThreadID   string
	From       string
	ReplyTo    string
	To         []string
	Cc         []string
	Date       string
	Subject    string
	Body       string
	BodyHTML   string
}

// ExtractReplyInfo parses a raw RFC 822 message. Bodies are only decoded
// when includeBodies is set, since they are only needed for quoting.
func ExtractReplyInfo(raw []byte, includeBodies bool) (*ReplyInfo, error) {
	r, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	header := r.Header
	info := &ReplyInfo{
		MessageID:  firstHeaderValue(header, "Message-ID", "Message-Id"),
		References: strings.Fields(header.Get("References")),
		From:       header.Get("From"),
		ReplyTo:    header.Get("Reply-To"),
		To:         parseEmailAddresses(header.Get("To")),
		Cc:         parseEmailAddresses(header.Get("Cc")),
		Date:       header.Get("Date"),
		Subject:    header.Get("Subject"),
	}

	if !includeBodies {
		return info, nil
	}

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch header := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := header.ContentType()
			if strings.HasPrefix(contentType, "text/plain") && info.Body == "" {
				info.Body = readAll(part.Body)
			}
			if strings.HasPrefix(contentType, "text/html") && info.BodyHTML == "" {
				info.BodyHTML = readAll(part.Body)
			}
		}
	}

	if info.Body != "" && looksLikeHTML(info.Body) {
		info.Body = ""
	}

	return info, nil
}

// ReplyInfoFromMessage builds reply context from an already fetched
// message, for callers that do not have the raw form at hand.
func ReplyInfoFromMessage(msg *gmail.Message) *ReplyInfo {
	if msg == nil {
		return nil
	}
	info := &ReplyInfo{
		MessageID:  msg.RFC822ID,
		References: append([]string(nil), msg.References...),
		ThreadID:   msg.ThreadID,
		From:       msg.From,
		ReplyTo:    msg.ReplyTo,
		To:         parseEmailAddresses(strings.Join(msg.To, ", ")),
		Cc:         parseEmailAddresses(strings.Join(msg.Cc, ", ")),
		Subject:    msg.Subject,
		Body:       msg.BodyText,
		BodyHTML:   msg.BodyHTML,
	}
	if !msg.Date.IsZero() {
		info.Date = msg.Date.Format(time.RFC1123Z)
	}
	return info
}

// BuildReplyHeaders derives In-Reply-To and the References chain. The
// original's chain is extended with its own message id, never duplicated.
func BuildReplyHeaders(info *ReplyInfo) (string, []string) {
	if info == nil {
		return "", nil
	}
	messageID := strings.TrimSpace(info.MessageID)
	refs := make([]string, 0, len(info.References)+1)
	refs = append(refs, info.References...)
	if messageID != "" {
		found := false
		for _, ref := range refs {
			if ref == messageID {
				found = true
				break
			}
		}
		if !found {
			refs = append(refs, messageID)
		}
	}
	return messageID, refs
}

func BuildReplyRecipients(info *ReplyInfo, selfEmail string) []string {
	if info == nil {
		return nil
	}
	replyAddress := strings.TrimSpace(info.ReplyTo)
	if replyAddress == "" {
		replyAddress = info.From
	}
	toAddrs := parseEmailAddresses(replyAddress)
	toAddrs = filterOutSelf(toAddrs, selfEmail)
	return deduplicateAddresses(toAddrs)
}

func BuildReplyAllRecipients(info *ReplyInfo, selfEmail string) (to, cc []string) {
	if info == nil {
		return nil, nil
	}
	replyAddress := strings.TrimSpace(info.ReplyTo)
	if replyAddress == "" {
		replyAddress = info.From
	}
	toAddrs := parseEmailAddresses(replyAddress)
	toAddrs = append(toAddrs, info.To...)
	toAddrs = filterOutSelf(toAddrs, selfEmail)
	toAddrs = deduplicateAddresses(toAddrs)

	ccAddrs := filterOutSelf(info.Cc, selfEmail)
	ccAddrs = deduplicateAddresses(ccAddrs)

	toSet := make(map[string]bool)
	for _, addr := range toAddrs {
		toSet[strings.ToLower(addr)] = true
	}
	filteredCc := make([]string, 0, len(ccAddrs))
	for _, addr := range ccAddrs {
		if !toSet[strings.ToLower(addr)] {
			filteredCc = append(filteredCc, addr)
		}
	}

	return toAddrs, filteredCc
}

func ReplySubject(original string) string {
	trimmed := strings.TrimSpace(original)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

type ReplyInput struct {
	Original *ReplyInfo
	From     string
	Body     string
	BodyHTML string
	ReplyAll bool
	Quote    bool

	// To and Cc override the derived recipients when set.
	To []string
	Cc []string

	Attachments     []string
	Signature       string
	AttachmentLimit int64
}

// BuildReply renders a reply to the original message, carrying its
// thread id so the provider files the reply into the same conversation.
func BuildReply(in ReplyInput) (gmail.WireMessage, error) {
	if in.Original == nil {
		return gmail.WireMessage{}, &mailerr.ValidationError{Reason: "original message is required for a reply"}
	}

	to := in.To
	cc := in.Cc
	if len(to) == 0 {
		if in.ReplyAll {
			to, cc = BuildReplyAllRecipients(in.Original, in.From)
		} else {
			to = BuildReplyRecipients(in.Original, in.From)
		}
	}

	inReplyTo, references := BuildReplyHeaders(in.Original)
	body, bodyHTML := ApplyQuoteToBodies(in.Body, in.BodyHTML, in.Quote, in.Original)

	msg, err := BuildMessage(ComposeInput{
		From:            in.From,
		To:              to,
		Cc:              cc,
		Subject:         ReplySubject(in.Original.Subject),
		Body:            body,
		BodyHTML:        bodyHTML,
		InReplyTo:       inReplyTo,
		References:      references,
		Attachments:     in.Attachments,
		Signature:       in.Signature,
		AttachmentLimit: in.AttachmentLimit,
	})
	if err != nil {
		return gmail.WireMessage{}, err
	}
	msg.ThreadID = in.Original.ThreadID
	return msg, nil
}

func ApplyQuoteToBodies(plainBody string, htmlBody string, quote bool, info *ReplyInfo) (string, string) {
	if !quote || info == nil {
		return plainBody, htmlBody
	}
	if info.Body == "" && info.BodyHTML == "" {
		return plainBody, htmlBody
	}

	userPlain := plainBody
	outPlain := plainBody
	if info.Body != "" {
		outPlain += formatQuotedMessage(info.From, info.Date, info.Body)
	}

	quoteContent := info.BodyHTML
	if quoteContent == "" && info.Body != "" {
		quoteContent = escapeTextToHTML(info.Body)
	}
	if quoteContent == "" {
		return outPlain, htmlBody
	}

	quoteHTML := formatQuotedMessageHTML(info.From, info.Date, quoteContent)

	outHTML := htmlBody
	if strings.TrimSpace(outHTML) == "" {
		outHTML = escapeTextToHTML(strings.TrimSpace(userPlain)) + quoteHTML
	} else {
		outHTML += quoteHTML
	}

	return outPlain, outHTML
}

func escapeTextToHTML(value string) string {
	value = html.EscapeString(value)
	return strings.ReplaceAll(value, "\n", "<br>\n")
}

func formatQuotedMessage(from, date, body string) string {
	if body == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n")

	switch {
	case date != "" && from != "":
		sb.WriteString(fmt.Sprintf("On %s, %s wrote:\n", date, from))
	case from != "":
		sb.WriteString(fmt.Sprintf("%s wrote:\n", from))
	default:
		sb.WriteString("Original message:\n")
	}

	lines := strings.Split(body, "\n")
	for _, line := range lines {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatQuotedMessageHTML(from, date, htmlContent string) string {
	senderName := from
	if addr, err := mail.ParseAddress(from); err == nil && addr.Name != "" {
		senderName = addr.Name
	}

	dateStr := date
	if dateStr == "" {
		dateStr = "an earlier date"
	}

	return fmt.Sprintf(`<br><br><div class="gmail_quote"><div class="gmail_attr">On %s, %s wrote:</div><blockquote class="gmail_quote" style="margin:0 0 0 .8ex;border-left:1px #ccc solid;padding-left:1ex">%s</blockquote></div>`,
		html.EscapeString(dateStr),
		html.EscapeString(senderName),
		htmlContent)
}

func parseEmailAddresses(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(header)
	if err != nil {
		return parseEmailAddressesFallback(header)
	}
	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Address != "" {
			result = append(result, strings.ToLower(addr.Address))
		}
	}
	return result
}

func parseEmailAddressesFallback(header string) []string {
	parts := strings.Split(header, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if start := strings.LastIndex(p, "<"); start != -1 {
			if end := strings.LastIndex(p, ">"); end > start {
				email := strings.TrimSpace(p[start+1 : end])
				if email != "" {
					result = append(result, strings.ToLower(email))
				}
				continue
			}
		}
		if strings.Contains(p, "@") {
			result = append(result, strings.ToLower(p))
		}
	}
	return result
}

func filterOutSelf(addresses []string, selfEmail string) []string {
	selfLower := strings.ToLower(selfEmail)
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if strings.ToLower(addr) != selfLower {
			result = append(result, addr)
		}
	}
	return result
}

func deduplicateAddresses(addresses []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		lower := strings.ToLower(addr)
		if !seen[lower] {
			seen[lower] = true
			result = append(result, addr)
		}
	}
	return result
}

func looksLikeHTML(value string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return false
	}
	return strings.HasPrefix(trimmed, "<!doctype") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.HasPrefix(trimmed, "<head") ||
		strings.HasPrefix(trimmed, "<body") ||
		strings.HasPrefix(trimmed, "<meta") ||
		strings.Contains(trimmed, "<html")
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

func StripHTMLTags(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func readAll(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(b)
}

func firstHeaderValue(header gomail.Header, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(header.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
