package preview

import (
	"strings"

	"golang.org/x/net/html"
)

// Summary describes an artifact for the preview panel.
type Summary struct {
	Title   string
	Bytes   int
	Lines   int
	Scripts int
	Charts  int
	Styles  int
}

// Summarize inspects an HTML document. It tolerates malformed markup.
func Summarize(doc string) Summary {
	s := Summary{
		Bytes: len(doc),
		Lines: strings.Count(doc, "\n") + 1,
	}
	if doc == "" {
		s.Lines = 0
		return s
	}

	z := html.NewTokenizer(strings.NewReader(doc))
	inTitle := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			s.Title = strings.TrimSpace(s.Title)
			return s
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = s.Title == ""
			case "script":
				s.Scripts++
			case "canvas", "svg":
				s.Charts++
			case "style":
				s.Styles++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = false
			}
		case html.TextToken:
			if inTitle {
				s.Title += string(z.Text())
			}
		}
	}
}
