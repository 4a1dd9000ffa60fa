package export

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements separate words when review widgets export rich text.
var blockElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
}

// markupTag matches a complete start, end or self-closing tag.
// A bare "<" in prose ("Size S<M") never matches.
var markupTag = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*(\s[^<>]*)?/?>`)

// plainText reduces a review field to plain text with collapsed whitespace.
//
// Markup is only stripped when the field holds at least one complete tag.
// Tags that are not HTML elements are kept as written, so text such as
// "<p>fits a<b</p>" keeps "a<b". Fields without tags only have their
// entities decoded.
func plainText(s string) string {
	if !markupTag.MatchString(s) {
		return collapse(html.UnescapeString(s))
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return collapse(html.UnescapeString(s))
			}
			// An unterminated tag at the end of input is text, not markup.
			sb.Write(z.Raw())
			return collapse(sb.String())
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == 0:
				sb.WriteString(html.UnescapeString(string(z.Raw())))
			case blockElements[a]:
				sb.WriteByte(' ')
			}
		}
	}
}

// collapse joins the words of s with single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
