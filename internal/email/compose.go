package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gmailcli/internal/gmail"
	"gmailcli/internal/mailerr"
)

// DefaultAttachmentLimit is the provider's per-message attachment cap.
const DefaultAttachmentLimit = 25 << 20

type ComposeInput struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	BodyHTML    string
	InReplyTo   string
	References  []string
	Attachments []string

	// Signature is appended to the body in the body's own format:
	// the HTML alternative when present, the plain body otherwise.
	Signature string

	// AttachmentLimit overrides DefaultAttachmentLimit when positive.
	AttachmentLimit int64
}

type attachment struct {
	filename    string
	contentType string
	data        []byte
}

// BuildMessage renders the input to a wire message with stable header
// ordering. Attachment sizes are validated here, before any network call.
func BuildMessage(in ComposeInput) (gmail.WireMessage, error) {
	if in.From == "" {
		return gmail.WireMessage{}, &mailerr.ValidationError{Reason: "from address is required"}
	}
	if len(in.To)+len(in.Cc)+len(in.Bcc) == 0 {
		return gmail.WireMessage{}, &mailerr.ValidationError{Reason: "at least one recipient is required"}
	}
	if strings.TrimSpace(in.Subject) == "" && strings.TrimSpace(in.Body) == "" && strings.TrimSpace(in.BodyHTML) == "" {
		return gmail.WireMessage{}, &mailerr.ValidationError{Reason: "a subject or body is required"}
	}

	body, bodyHTML := applySignature(in.Body, in.BodyHTML, in.Signature)

	attachments, err := loadAttachments(in.Attachments, in.AttachmentLimit)
	if err != nil {
		return gmail.WireMessage{}, err
	}

	var buf bytes.Buffer

	writeHeader(&buf, "From", in.From)
	writeHeader(&buf, "To", strings.Join(in.To, ", "))
	writeHeader(&buf, "Cc", strings.Join(in.Cc, ", "))
	writeHeader(&buf, "Bcc", strings.Join(in.Bcc, ", "))
	writeHeader(&buf, "Subject", in.Subject)
	writeHeader(&buf, "In-Reply-To", in.InReplyTo)
	writeHeader(&buf, "References", strings.Join(in.References, " "))
	writeHeader(&buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	switch {
	case len(attachments) == 0 && bodyHTML == "":
		if err := writePlainBody(&buf, body); err != nil {
			return gmail.WireMessage{}, err
		}
	case len(attachments) == 0:
		if err := writeAlternative(&buf, body, bodyHTML); err != nil {
			return gmail.WireMessage{}, err
		}
	default:
		if err := writeMixed(&buf, body, bodyHTML, attachments); err != nil {
			return gmail.WireMessage{}, err
		}
	}

	return gmail.WireMessage{Raw: base64.URLEncoding.EncodeToString(buf.Bytes())}, nil
}

func applySignature(body, bodyHTML, signature string) (string, string) {
	if strings.TrimSpace(signature) == "" {
		return body, bodyHTML
	}
	if bodyHTML != "" {
		return body, bodyHTML + "<br><br>" + signature
	}
	plain := signature
	if htmlTagPattern.MatchString(signature) {
		plain = StripHTMLTags(signature)
	}
	return body + "\n\n" + plain, bodyHTML
}

func loadAttachments(paths []string, limit int64) ([]attachment, error) {
	if limit <= 0 {
		limit = DefaultAttachmentLimit
	}

	out := make([]attachment, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}
		filename := filepath.Base(path)
		if info.Size() > limit {
			return nil, &mailerr.AttachmentTooLargeError{Filename: filename, Size: info.Size(), Limit: limit}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment: %w", err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		out = append(out, attachment{filename: filename, contentType: contentType, data: data})
	}
	return out, nil
}

func writePlainBody(buf *bytes.Buffer, body string) error {
	writeHeader(buf, "Content-Type", "text/plain; charset=\"utf-8\"")
	writeHeader(buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")
	return writeQuotedPrintable(buf, body)
}

func writeAlternative(buf *bytes.Buffer, body, bodyHTML string) error {
	writer := multipart.NewWriter(buf)
	writeHeader(buf, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", writer.Boundary()))
	buf.WriteString("\r\n")

	if err := writeTextParts(writer, body, bodyHTML); err != nil {
		return err
	}
	return writer.Close()
}

func writeMixed(buf *bytes.Buffer, body, bodyHTML string, attachments []attachment) error {
	writer := multipart.NewWriter(buf)
	writeHeader(buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", writer.Boundary()))
	buf.WriteString("\r\n")

	if bodyHTML == "" {
		textHeader := textproto.MIMEHeader{}
		textHeader.Set("Content-Type", "text/plain; charset=\"utf-8\"")
		textHeader.Set("Content-Transfer-Encoding", "quoted-printable")
		part, err := writer.CreatePart(textHeader)
		if err != nil {
			return err
		}
		if err := writeQuotedPrintable(part, body); err != nil {
			return err
		}
	} else {
		var altBody bytes.Buffer
		inner := multipart.NewWriter(&altBody)
		if err := writeTextParts(inner, body, bodyHTML); err != nil {
			return err
		}
		if err := inner.Close(); err != nil {
			return err
		}

		altHeader := textproto.MIMEHeader{}
		altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", inner.Boundary()))
		part, err := writer.CreatePart(altHeader)
		if err != nil {
			return err
		}
		if _, err := part.Write(altBody.Bytes()); err != nil {
			return err
		}
	}

	for _, att := range attachments {
		partHeader := textproto.MIMEHeader{}
		partHeader.Set("Content-Type", fmt.Sprintf("%s; name=\"%s\"", att.contentType, att.filename))
		partHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", att.filename))
		partHeader.Set("Content-Transfer-Encoding", "base64")

		part, err := writer.CreatePart(partHeader)
		if err != nil {
			return err
		}
		if err := writeBase64(part, att.data); err != nil {
			return err
		}
	}

	return writer.Close()
}

func writeTextParts(writer *multipart.Writer, body, bodyHTML string) error {
	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=\"utf-8\"")
	textHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return err
	}
	if err := writeQuotedPrintable(textPart, body); err != nil {
		return err
	}

	if bodyHTML == "" {
		return nil
	}

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=\"utf-8\"")
	htmlHeader.Set("Content-Transfer-Encoding", "quoted-printable")
	htmlPart, err := writer.CreatePart(htmlHeader)
	if err != nil {
		return err
	}
	return writeQuotedPrintable(htmlPart, bodyHTML)
}

func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := w.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		if _, err := w.Write([]byte(encoded + "\r\n")); err != nil {
			return err
		}
	}
	return nil
}
