package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/errs"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		field   bool
	}{
		{name: "valid", raw: `{"type":"doc","content":[{"type":"paragraph"}]}`},
		{name: "empty content", raw: `{"type":"doc","content":[]}`},
		{name: "missing content", raw: `{"type":"doc"}`},
		{name: "unknown node kept", raw: `{"type":"doc","content":[{"type":"callout","content":[]}]}`},
		{name: "null", raw: `null`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "wrong root", raw: `{"type":"paragraph","content":[]}`, wantErr: true, field: true},
		{name: "not an object", raw: `[1,2,3]`, wantErr: true, field: true},
		{name: "node without type", raw: `{"type":"doc","content":[{"text":"hi"}]}`, wantErr: true, field: true},
		{name: "scalar node", raw: `{"type":"doc","content":["hi"]}`, wantErr: true, field: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Validate([]byte(tt.raw))
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, DocType, doc.Type)
				assert.NotNil(t, doc.Content)
				return
			}
			require.Error(t, err)
			if tt.field {
				assert.True(t, errs.IsInvalidFieldError(err))
			} else {
				assert.True(t, errs.IsMissingRequiredFieldError(err))
			}
		})
	}
}

func TestUnknownNodesSurviveRoundTrip(t *testing.T) {
	raw := `{"type":"doc","content":[{"type":"callout","attrs":{"tone":"info"},"content":[{"type":"text","text":"careful"}]}]}`
	doc, err := Validate([]byte(raw))
	require.NoError(t, err)

	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(encoded))

	assert.Equal(t, `<div data-node-type="callout">careful</div>`, RenderHTML(&doc))
}

func TestRenderHTML(t *testing.T) {
	doc := NewDocument(
		Heading(9, "Title"),
		Node{Type: "paragraph", Content: []Node{
			{Type: "text", Text: "a <b> & "},
			{Type: "text", Text: "link", Marks: []Mark{{Type: "link", Attrs: map[string]any{"href": "https://example.com"}}}},
			{Type: "text", Text: "bad", Marks: []Mark{{Type: "link", Attrs: map[string]any{"href": "javascript:alert(1)"}}, {Type: "bold"}}},
		}},
		Node{Type: "codeBlock", Attrs: map[string]any{"language": "go"}, Content: []Node{{Type: "text", Text: "x < y"}}},
		Node{Type: "image", Attrs: map[string]any{"src": "/uploads/a.png", "alt": "A \"quoted\" alt"}},
		Node{Type: "image", Attrs: map[string]any{"src": "data:image/png;base64,xx"}},
	)

	got := RenderHTML(&doc)
	assert.Contains(t, got, "<h6>Title</h6>")
	assert.Contains(t, got, "a &lt;b&gt; &amp; ")
	assert.Contains(t, got, `<a href="https://example.com" rel="noopener noreferrer nofollow">link</a>`)
	assert.Contains(t, got, "<strong>bad</strong>")
	assert.NotContains(t, got, "javascript:")
	assert.Contains(t, got, `<pre><code class="language-go">x &lt; y</code></pre>`)
	assert.Contains(t, got, `<img src="/uploads/a.png" alt="A &#34;quoted&#34; alt">`)
	assert.NotContains(t, got, "data:image")
	assert.Equal(t, "", RenderHTML(nil))
}

func TestToPlainTextSeparatesBlocks(t *testing.T) {
	doc := NewDocument(
		Heading(1, "Hello"),
		Paragraph("world   and"),
		Node{Type: "bulletList", Content: []Node{
			{Type: "listItem", Content: []Node{Paragraph("one")}},
			{Type: "listItem", Content: []Node{Paragraph("two")}},
		}},
	)
	assert.Equal(t, "Hello world and one two", ToPlainText(&doc))

	empty := NewDocument()
	assert.Equal(t, "", ToPlainText(&empty))
}

func TestEstimateReadingTimeMinutes(t *testing.T) {
	words := func(n int) string {
		b := make([]byte, 0, n*2)
		for i := 0; i < n; i++ {
			b = append(b, "w "...)
		}
		return string(b)
	}

	assert.Equal(t, 1, EstimateReadingTimeMinutes(""))
	assert.Equal(t, 1, EstimateReadingTimeMinutes(words(50)))
	assert.Equal(t, 1, EstimateReadingTimeMinutes(words(299)))
	assert.Equal(t, 2, EstimateReadingTimeMinutes(words(300)))
	assert.Equal(t, 5, EstimateReadingTimeMinutes(words(1000)))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short text", Summarize("  short   text ", 50))
	assert.Equal(t, "the quick…", Summarize("the quick brown fox", 12))
	assert.Equal(t, "", Summarize("anything", 0))
}

func TestToMarkdown(t *testing.T) {
	doc := NewDocument(Heading(2, "Intro"), Paragraph("Body text"))
	md, err := ToMarkdown(&doc)
	require.NoError(t, err)
	assert.Contains(t, md, "## Intro")
	assert.Contains(t, md, "Body text")

	md, err = ToMarkdown(nil)
	require.NoError(t, err)
	assert.Equal(t, "", md)
}

func TestImages(t *testing.T) {
	doc := NewDocument(
		Node{Type: "image", Attrs: map[string]any{"src": "/a.png"}},
		Node{Type: "blockquote", Content: []Node{{Type: "image", Attrs: map[string]any{"src": "/b.png"}}}},
	)
	assert.Equal(t, []string{"/a.png", "/b.png"}, doc.Images())
}
