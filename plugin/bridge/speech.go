package bridge

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kiralabs/kira/plugin/ai"
)

// MaxSpeechChars is the character cap on spoken text.
const MaxSpeechChars = 500

var markdownParser = goldmark.DefaultParser()

// SpeechText strips markdown from a reply and caps it for text-to-speech.
// Code blocks, raw HTML and images are dropped; links keep their label.
func SpeechText(markdown string, max int) string {
	src := []byte(markdown)
	doc := markdownParser.Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				sb.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		case *ast.AutoLink:
			sb.Write(node.Label(src))
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.Fields(sb.String()), " ")
	return strings.TrimSpace(ai.TruncateRunes(plain, max))
}
