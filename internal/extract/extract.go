package extract

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts plain text from an in-memory PDF payload.
func PDFText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const maxTitleLen = 80

// TitleFromText picks a title heuristic: the first printable line,
// truncated to a sane length. Returns "" when nothing usable is found.
func TitleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimSpace(line)
		if candidate == "" || !hasLetter(candidate) {
			continue
		}
		if len(candidate) > maxTitleLen {
			candidate = strings.TrimSpace(candidate[:maxTitleLen])
		}
		return candidate
	}
	return ""
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
