package content

import (
	"math"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// ToPlainText renders doc and strips every tag, leaving whitespace separated text.
// Text from adjacent elements is always separated, even across inline marks.
func ToPlainText(doc *Document) string {
	rendered := RenderHTML(doc)
	if rendered == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// EstimateReadingTimeMinutes rounds words/WordsPerMinute to the nearest minute,
// never returning less than one.
func EstimateReadingTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Round(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Summarize cuts text to at most max runes at a word boundary, adding an
// ellipsis when anything was dropped.
func Summarize(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// ToMarkdown converts the rendered document to markdown.
func ToMarkdown(doc *Document) (string, error) {
	rendered := RenderHTML(doc)
	if rendered == "" {
		return "", nil
	}
	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(md)), nil
}
