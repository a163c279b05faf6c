package move

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var highlightRe = regexp.MustCompile(`highlight highlight-(\S+)`)

// Transformer converts server-rendered issue and comment HTML into
// GitHub-flavored markdown for the target repository. It is pure and
// deterministic: identical input yields identical output, and it performs
// no remote calls.
type Transformer struct {
	keepContentMentions bool
	sameOwner           bool
	conv                *converter.Converter
}

func NewTransformer(keepContentMentions, sameOwner bool) *Transformer {
	t := &Transformer{
		keepContentMentions: keepContentMentions,
		sameOwner:           sameOwner,
	}
	t.conv = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	t.conv.Register.RendererFor("pre", converter.TagTypeBlock, t.renderCodeBlock, converter.PriorityEarly)
	t.conv.Register.RendererFor("a", converter.TagTypeInline, t.renderMention, converter.PriorityEarly)
	return t
}

// Markdown converts one rendered HTML body.
func (t *Transformer) Markdown(htmlBody string) (string, error) {
	md, err := t.conv.ConvertString(htmlBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// renderCodeBlock rewrites highlighted code blocks
// (<div class="highlight highlight-<lang>"><pre>…</pre></div>) into fenced
// blocks tagged with the language, "source-" prefix stripped, raw text kept
// verbatim.
func (t *Transformer) renderCodeBlock(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	parent := n.Parent
	if parent == nil || parent.DataAtom != atom.Div {
		return converter.RenderTryNext
	}
	m := highlightRe.FindStringSubmatch(dom.GetAttributeOr(parent, "class", ""))
	if m == nil {
		return converter.RenderTryNext
	}

	lang := strings.TrimPrefix(m[1], "source-")
	w.WriteString("\n\n```" + lang + "\n")
	w.WriteString(textContent(n))
	w.WriteString("\n```\n\n")
	return converter.RenderSuccess
}

// renderMention rewrites user and team mention links to plain bracketed
// links with the leading @ stripped, unless mentions are kept: user mentions
// stay live, team mentions stay live only within the same owner (they do
// not resolve across owners).
func (t *Transformer) renderMention(_ converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	class := dom.GetAttributeOr(n, "class", "")
	user := hasClass(class, "user-mention")
	team := hasClass(class, "team-mention")
	if !user && !team {
		return converter.RenderTryNext
	}

	text := textContent(n)
	if t.keepContentMentions && (user || t.sameOwner) {
		w.WriteString(text)
		return converter.RenderSuccess
	}

	href := dom.GetAttributeOr(n, "href", "")
	w.WriteString("[" + strings.TrimPrefix(text, "@") + "](" + href + ")")
	return converter.RenderSuccess
}

func hasClass(class, name string) bool {
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
