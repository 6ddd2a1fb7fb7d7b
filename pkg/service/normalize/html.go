package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText flattens an HTML fragment: script and style contents are dropped,
// tags become spaces, entities are unescaped and whitespace is collapsed.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was read
			return strings.Join(strings.Fields(sb.String()), " ")

		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) {
				skip++
			}
			sb.WriteByte(' ')

		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')

		case html.SelfClosingTagToken, html.CommentToken, html.DoctypeToken:
			sb.WriteByte(' ')

		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
