// Package content defines the rich-text document stored with every post and the
// transforms derived from it: HTML rendering, plain text, reading time and markdown.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rpupo63/portfolio-cms/errs"
)

// DocType is the root discriminator every document must carry.
const DocType = "doc"

// Kind identifies a node type. The set is open: kinds not listed here are
// preserved and rendered through a fallback.
type Kind string

const (
	KindParagraph      Kind = "paragraph"
	KindHeading        Kind = "heading"
	KindBulletList     Kind = "bulletList"
	KindOrderedList    Kind = "orderedList"
	KindListItem       Kind = "listItem"
	KindBlockquote     Kind = "blockquote"
	KindCodeBlock      Kind = "codeBlock"
	KindHorizontalRule Kind = "horizontalRule"
	KindHardBreak      Kind = "hardBreak"
	KindImage          Kind = "image"
	KindText           Kind = "text"
)

// Mark is an inline formatting annotation on a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Node is one element of the document tree. Block nodes carry Content,
// text nodes carry Text and Marks.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Kind returns the node type as a Kind.
func (n Node) Kind() Kind {
	return Kind(n.Type)
}

// Known reports whether the node type has a dedicated renderer.
func (n Node) Known() bool {
	switch n.Kind() {
	case KindParagraph, KindHeading, KindBulletList, KindOrderedList, KindListItem,
		KindBlockquote, KindCodeBlock, KindHorizontalRule, KindHardBreak, KindImage, KindText:
		return true
	}
	return false
}

// Document is the root of a rich-text tree.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// NewDocument builds a document from top-level nodes.
func NewDocument(nodes ...Node) Document {
	if nodes == nil {
		nodes = []Node{}
	}
	return Document{Type: DocType, Content: nodes}
}

// Paragraph is a convenience constructor for a paragraph of plain text.
func Paragraph(text string) Node {
	return Node{Type: string(KindParagraph), Content: []Node{{Type: string(KindText), Text: text}}}
}

// Heading is a convenience constructor for a heading of the given level.
func Heading(level int, text string) Node {
	return Node{
		Type:    string(KindHeading),
		Attrs:   map[string]any{"level": level},
		Content: []Node{{Type: string(KindText), Text: text}},
	}
}

// IsEmpty reports whether doc is absent or has no top-level nodes.
func IsEmpty(doc *Document) bool {
	return doc == nil || len(doc.Content) == 0
}

// Validate checks that raw is a document: an object whose type is "doc" and
// whose content is a (possibly empty) array of objects each carrying a type.
// Node types are not checked any deeper, so unknown kinds pass through.
func Validate(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Document{}, errs.NewMissingRequiredFieldError("contentJson")
	}

	var probe struct {
		Type    *string           `json:"type"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return Document{}, errs.NewInvalidFieldError("contentJson", "content must be a document object with a content array")
	}
	if probe.Type == nil || *probe.Type != DocType {
		return Document{}, errs.NewInvalidFieldError("contentJson", fmt.Sprintf("root type must be %q", DocType))
	}
	for i, rawNode := range probe.Content {
		var node struct {
			Type *string `json:"type"`
		}
		if err := json.Unmarshal(rawNode, &node); err != nil {
			return Document{}, errs.NewInvalidFieldError("contentJson", fmt.Sprintf("node %d is not an object", i))
		}
		if node.Type == nil || *node.Type == "" {
			return Document{}, errs.NewInvalidFieldError("contentJson", fmt.Sprintf("node %d has no type", i))
		}
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, errs.NewInvalidFieldError("contentJson", "content tree is malformed")
	}
	if doc.Content == nil {
		doc.Content = []Node{}
	}
	return doc, nil
}

// UnmarshalJSON keeps Content non-nil so an empty document always encodes as [].
func (d *Document) UnmarshalJSON(data []byte) error {
	type alias Document
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Content == nil {
		a.Content = []Node{}
	}
	*d = Document(a)
	return nil
}

// Images returns the src of every image node in document order.
func (d Document) Images() []string {
	var srcs []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Kind() == KindImage {
				if src := stringAttr(n.Attrs, "src"); src != "" {
					srcs = append(srcs, src)
				}
			}
			walk(n.Content)
		}
	}
	walk(d.Content)
	return srcs
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if s, ok := attrs[key].(string); ok {
		return s
	}
	return ""
}

func intAttr(attrs map[string]any, key string, fallback int) int {
	if attrs == nil {
		return fallback
	}
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}
