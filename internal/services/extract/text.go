package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/nguyenthenguyen/docx"
)

// readPlainText reads a text file as-is
func readPlainText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

// readDocx extracts raw text from a word-processor document
func readDocx(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return stripDocxXML(content), nil
}

// stripDocxXML drops XML tags from docx content, keeping text runs and
// inserting newlines at paragraph boundaries.
func stripDocxXML(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")

	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// readEmail parses an RFC 822 message and returns a readable rendering of
// the headers followed by the first text body part.
func readEmail(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open email: %w", err)
	}
	defer f.Close()

	mr, err := mail.CreateReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse email: %w", err)
	}

	var b strings.Builder
	header := mr.Header
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		b.WriteString("From: " + from[0].String() + "\n")
	}
	if to, err := header.AddressList("To"); err == nil && len(to) > 0 {
		addrs := make([]string, len(to))
		for i, a := range to {
			addrs[i] = a.String()
		}
		b.WriteString("To: " + strings.Join(addrs, ", ") + "\n")
	}
	if subject, err := header.Subject(); err == nil && subject != "" {
		b.WriteString("Subject: " + subject + "\n")
	}
	if date, err := header.Date(); err == nil && !date.IsZero() {
		b.WriteString("Date: " + date.Format("2006-01-02 15:04") + "\n")
	}
	b.WriteString("\n")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read email part: %w", err)
		}

		if _, ok := part.Header.(*mail.InlineHeader); ok {
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			b.Write(body)
			break // First text body part is enough
		}
	}

	return b.String(), nil
}
