package content

import (
	"html"
	"net/url"
	"strconv"
	"strings"
)

// RenderHTML renders doc as HTML. All text and attribute values are escaped
// and only http(s), mailto and site-relative URLs survive in links and images.
func RenderHTML(doc *Document) string {
	if IsEmpty(doc) {
		return ""
	}
	var b strings.Builder
	renderNodes(&b, doc.Content)
	return b.String()
}

func renderNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		renderNode(b, n)
	}
}

func renderNode(b *strings.Builder, n Node) {
	switch n.Kind() {
	case KindText:
		renderText(b, n)
	case KindParagraph:
		wrap(b, "p", n.Content)
	case KindHeading:
		level := intAttr(n.Attrs, "level", 2)
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		wrap(b, "h"+strconv.Itoa(level), n.Content)
	case KindBulletList:
		wrap(b, "ul", n.Content)
	case KindOrderedList:
		start := intAttr(n.Attrs, "start", 1)
		if start != 1 {
			b.WriteString(`<ol start="` + strconv.Itoa(start) + `">`)
		} else {
			b.WriteString("<ol>")
		}
		renderNodes(b, n.Content)
		b.WriteString("</ol>")
	case KindListItem:
		wrap(b, "li", n.Content)
	case KindBlockquote:
		wrap(b, "blockquote", n.Content)
	case KindCodeBlock:
		if lang := stringAttr(n.Attrs, "language"); lang != "" {
			b.WriteString(`<pre><code class="language-` + html.EscapeString(lang) + `">`)
		} else {
			b.WriteString("<pre><code>")
		}
		b.WriteString(html.EscapeString(collectText(n.Content)))
		b.WriteString("</code></pre>")
	case KindHorizontalRule:
		b.WriteString("<hr>")
	case KindHardBreak:
		b.WriteString("<br>")
	case KindImage:
		src := safeURL(stringAttr(n.Attrs, "src"))
		if src == "" {
			return
		}
		b.WriteString(`<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(stringAttr(n.Attrs, "alt")) + `"`)
		if title := stringAttr(n.Attrs, "title"); title != "" {
			b.WriteString(` title="` + html.EscapeString(title) + `"`)
		}
		b.WriteString(">")
	default:
		renderFallback(b, n)
	}
}

// renderFallback keeps the content of node types without a renderer visible.
func renderFallback(b *strings.Builder, n Node) {
	if len(n.Content) == 0 {
		if n.Text != "" {
			renderText(b, n)
		}
		return
	}
	b.WriteString(`<div data-node-type="` + html.EscapeString(n.Type) + `">`)
	renderNodes(b, n.Content)
	b.WriteString("</div>")
}

func wrap(b *strings.Builder, tag string, children []Node) {
	b.WriteString("<" + tag + ">")
	renderNodes(b, children)
	b.WriteString("</" + tag + ">")
}

func renderText(b *strings.Builder, n Node) {
	var closers []string
	for _, m := range n.Marks {
		switch m.Type {
		case "bold":
			b.WriteString("<strong>")
			closers = append(closers, "</strong>")
		case "italic":
			b.WriteString("<em>")
			closers = append(closers, "</em>")
		case "strike":
			b.WriteString("<s>")
			closers = append(closers, "</s>")
		case "underline":
			b.WriteString("<u>")
			closers = append(closers, "</u>")
		case "code":
			b.WriteString("<code>")
			closers = append(closers, "</code>")
		case "link":
			href := safeURL(stringAttr(m.Attrs, "href"))
			if href == "" {
				continue
			}
			b.WriteString(`<a href="` + html.EscapeString(href) + `" rel="noopener noreferrer nofollow">`)
			closers = append(closers, "</a>")
		}
	}
	b.WriteString(html.EscapeString(n.Text))
	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteString(closers[i])
	}
}

func collectText(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
		b.WriteString(collectText(n.Content))
	}
	return b.String()
}

func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return raw
	}
	return ""
}
