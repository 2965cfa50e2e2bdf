package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Quote is a run of lines starting with '>', quoting an earlier reply.
type Quote struct {
	ast.BaseBlock
}

func (n *Quote) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

var KindQuote = ast.NewNodeKind("Quote")

func (n *Quote) Kind() ast.NodeKind {
	return KindQuote
}

type quoteParser struct{}

func NewQuoteParser() parser.BlockParser {
	return &quoteParser{}
}

func (b *quoteParser) Trigger() []byte {
	return []byte{'>'}
}

func (b *quoteParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	if len(line) == 0 || line[0] != '>' {
		return nil, parser.NoChildren
	}

	node := &Quote{}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (b *quoteParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) || line[0] != '>' {
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (b *quoteParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *quoteParser) CanInterruptParagraph() bool {
	return true
}

func (b *quoteParser) CanAcceptIndentedLine() bool {
	return false
}

type QuoteHTMLRenderer struct {
	html.Config
}

func NewQuoteHTMLRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &QuoteHTMLRenderer{
		Config: html.NewConfig(),
	}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *QuoteHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindQuote, r.renderQuote)
}

// renderQuote writes the quoted lines without their '>' marker, escaped.
func (r *QuoteHTMLRenderer) renderQuote(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<blockquote class="cita">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		value := bytes.TrimRight(line.Value(source), "\r\n")
		value = bytes.TrimSpace(bytes.TrimPrefix(value, []byte{'>'}))
		_, _ = w.Write(util.EscapeHTML(value))
		if i < lines.Len()-1 {
			_, _ = w.WriteString("<br>")
		}
	}
	_, _ = w.WriteString("</blockquote>")
	return ast.WalkSkipChildren, nil
}
