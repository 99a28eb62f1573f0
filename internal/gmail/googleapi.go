package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	api "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes requested on login: read/modify mail, compose and send drafts,
// and read the signature from the send-as settings.
var Scopes = []string{
	api.GmailModifyScope,
	api.GmailComposeScope,
	api.GmailSettingsBasicScope,
}

type apiClient struct {
	svc *api.Service
}

// NewAPIClient builds a Client over the real service. The token source
// is read on every call, so a credential refreshed mid-session is picked
// up without rebuilding the client.
func NewAPIClient(ctx context.Context, ts oauth2.TokenSource) (Client, error) {
	svc, err := api.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create mail service: %w", err)
	}
	return &apiClient{svc: svc}, nil
}

func (c *apiClient) Profile(ctx context.Context) (Profile, error) {
	p, err := c.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return Profile{}, err
	}
	return Profile{EmailAddress: p.EmailAddress, MessagesTotal: p.MessagesTotal}, nil
}

var summaryHeaders = []string{"From", "To", "Subject", "Date"}

func (c *apiClient) Search(ctx context.Context, query string, pageSize int64, pageToken string) (SearchPage, error) {
	call := c.svc.Users.Messages.List("me").Q(query).MaxResults(pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return SearchPage{}, err
	}

	page := SearchPage{
		NextPageToken: res.NextPageToken,
		SizeEstimate:  res.ResultSizeEstimate,
	}
	for _, m := range res.Messages {
		msg, err := c.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").MetadataHeaders(summaryHeaders...).Context(ctx).Do()
		if err != nil {
			return SearchPage{}, err
		}
		page.Messages = append(page.Messages, summaryOf(msg))
	}
	return page, nil
}

func (c *apiClient) GetMessage(ctx context.Context, id string) (*Message, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	headers := headerMap(msg.Payload)
	out := &Message{
		MessageSummary: summaryOf(msg),
		Cc:             splitAddresses(headers["Cc"]),
		ReplyTo:        headers["Reply-To"],
		RFC822ID:       headers["Message-ID"],
		References:     strings.Fields(headers["References"]),
	}
	if out.RFC822ID == "" {
		out.RFC822ID = headers["Message-Id"]
	}
	out.To = splitAddresses(headers["To"])
	out.BodyText, out.BodyHTML, out.Attachments = parseParts(msg.Payload, msg.Id)
	return out, nil
}

// GetRawMessage returns the undecoded RFC 822 form plus the owning
// thread id, which a reply must carry to stay in the conversation.
func (c *apiClient) GetRawMessage(ctx context.Context, id string) ([]byte, string, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, "", err
	}
	raw, err := decodeBase64(msg.Raw)
	if err != nil {
		return nil, "", err
	}
	return raw, msg.ThreadId, nil
}

func (c *apiClient) SendMessage(ctx context.Context, msg WireMessage) (SendResult, error) {
	sent, err := c.svc.Users.Messages.Send("me", &api.Message{
		Raw:      msg.Raw,
		ThreadId: msg.ThreadID,
	}).Context(ctx).Do()
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func (c *apiClient) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	_, err := c.svc.Users.Messages.Modify("me", id, &api.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	return err
}

func (c *apiClient) CreateDraft(ctx context.Context, msg WireMessage) (DraftSummary, error) {
	created, err := c.svc.Users.Drafts.Create("me", &api.Draft{
		Message: &api.Message{Raw: msg.Raw, ThreadId: msg.ThreadID},
	}).Context(ctx).Do()
	if err != nil {
		return DraftSummary{}, err
	}

	out := DraftSummary{ID: created.Id}
	if created.Message != nil {
		out.MessageID = created.Message.Id
		out.ThreadID = created.Message.ThreadId
	}
	return out, nil
}

func (c *apiClient) ListDrafts(ctx context.Context, pageSize int64, pageToken string) ([]DraftSummary, string, error) {
	call := c.svc.Users.Drafts.List("me").MaxResults(pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", err
	}

	// Uploads and downloads are sequential; so are these detail fetches.
	summaries := make([]DraftSummary, 0, len(res.Drafts))
	for _, d := range res.Drafts {
		detail, err := c.svc.Users.Drafts.Get("me", d.Id).Format("metadata").Context(ctx).Do()
		if err != nil {
			return nil, "", err
		}
		summaries = append(summaries, draftSummaryOf(detail))
	}
	return summaries, res.NextPageToken, nil
}

func (c *apiClient) GetDraft(ctx context.Context, id string) (*DraftDetail, error) {
	d, err := c.svc.Users.Drafts.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := &DraftDetail{DraftSummary: draftSummaryOf(d)}
	if d.Message != nil {
		out.BodyText, out.BodyHTML, out.Attachments = parseParts(d.Message.Payload, d.Message.Id)
	}
	return out, nil
}

func (c *apiClient) SendDraft(ctx context.Context, id string) (SendResult, error) {
	sent, err := c.svc.Users.Drafts.Send("me", &api.Draft{Id: id}).Context(ctx).Do()
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

func (c *apiClient) DeleteDraft(ctx context.Context, id string) error {
	return c.svc.Users.Drafts.Delete("me", id).Context(ctx).Do()
}

func (c *apiClient) Attachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := c.svc.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return decodeBase64(body.Data)
}

func (c *apiClient) Signature(ctx context.Context) (string, error) {
	res, err := c.svc.Users.Settings.SendAs.List("me").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	for _, sendAs := range res.SendAs {
		if sendAs.IsPrimary {
			return sendAs.Signature, nil
		}
	}
	return "", nil
}

func summaryOf(msg *api.Message) MessageSummary {
	headers := headerMap(msg.Payload)

	subject := headers["Subject"]
	if subject == "" {
		subject = "(no subject)"
	}

	return MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  subject,
		From:     headers["From"],
		To:       splitAddresses(headers["To"]),
		Date:     messageDate(headers["Date"], msg.InternalDate),
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
		Unread:   hasLabel(msg.LabelIds, "UNREAD"),
	}
}

func draftSummaryOf(d *api.Draft) DraftSummary {
	out := DraftSummary{ID: d.Id}
	if d.Message == nil {
		return out
	}
	headers := headerMap(d.Message.Payload)

	out.MessageID = d.Message.Id
	out.ThreadID = d.Message.ThreadId
	out.To = headers["To"]
	out.Cc = headers["Cc"]
	out.Subject = headers["Subject"]
	if out.Subject == "" {
		out.Subject = "(no subject)"
	}
	out.Snippet = d.Message.Snippet
	return out
}

func headerMap(payload *api.MessagePart) map[string]string {
	headers := map[string]string{}
	if payload == nil {
		return headers
	}
	for _, h := range payload.Headers {
		headers[h.Name] = h.Value
	}
	return headers
}

// parseParts walks a message payload recursively, extracting the first
// plain and HTML bodies plus attachment descriptors.
func parseParts(payload *api.MessagePart, messageID string) (bodyText, bodyHTML string, attachments []AttachmentInfo) {
	if payload == nil {
		return "", "", nil
	}

	mimeType := payload.MimeType
	switch {
	case mimeType == "text/plain":
		bodyText = decodeBody(payload.Body)
	case mimeType == "text/html":
		bodyHTML = decodeBody(payload.Body)
	case strings.Contains(mimeType, "multipart"):
		for _, part := range payload.Parts {
			if part.Filename != "" {
				att := AttachmentInfo{
					MessageID: messageID,
					Filename:  part.Filename,
					MIMEType:  part.MimeType,
				}
				if part.Body != nil {
					att.ID = part.Body.AttachmentId
					att.Size = part.Body.Size
				}
				attachments = append(attachments, att)
				continue
			}
			subText, subHTML, subAtts := parseParts(part, messageID)
			if bodyText == "" {
				bodyText = subText
			}
			if bodyHTML == "" {
				bodyHTML = subHTML
			}
			attachments = append(attachments, subAtts...)
		}
	}
	return bodyText, bodyHTML, attachments
}

func decodeBody(body *api.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	data, err := decodeBase64(body.Data)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeBase64(data string) ([]byte, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

func messageDate(header string, internalDate int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate).UTC()
	}
	return time.Time{}
}

func splitAddresses(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}
