package sentiment

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// CleanText renders markdown, keeps only the text nodes of the result, drops
// links and collapses whitespace.
func CleanText(input string) string {
	if isBlank(input) {
		return ""
	}

	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := RemoveLinks(htmlText(rendered))

	return strings.Join(strings.Fields(plainText), " ")
}

func htmlText(doc []byte) string {
	var sb strings.Builder
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() != io.EOF {
				// unparseable markup, fall back to the raw rendering
				return string(doc)
			}
			return sb.String()
		case html.TextToken:
			sb.Write(tokenizer.Text())
			sb.WriteByte(' ')
		}
	}
}
