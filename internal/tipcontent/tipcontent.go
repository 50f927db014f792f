// Package tipcontent normalises tip text and derives the dedup fingerprint.
package tipcontent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const fingerprintBodyRunes = 200

// Fingerprint is the sha256 hex digest of
// "topicID:lower(trim(title)):first 200 runes of trim(body)".
func Fingerprint(topicID int64, title, body string) string {
	b := []rune(strings.TrimSpace(body))
	if len(b) > fingerprintBodyRunes {
		b = b[:fingerprintBodyRunes]
	}
	raw := fmt.Sprintf("%d:%s:%s", topicID, strings.ToLower(strings.TrimSpace(title)), string(b))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
// Input without markup comes back trimmed.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
