// # internal/docs/docs.go
//
// Docstring enrichment: turns a raw docstring into structured docs on the
// node (summary, formatted body, javadoc tag records) and cross-links
// parameter, return and exception documentation onto the node's signature.
// The pipeline is a pure function of the raw doc, so re-running it over an
// already enriched node reproduces the same output.
package docs

import (
	"log/slog"
	"regexp"
	"strings"

	"supdoc/internal/objdoc"
)

const tabWidth = 8

// Tags whose text begins with an argument word, e.g. "@param name ...".
var argTags = map[string]bool{
	"param":  true,
	"type":   true,
	"cvar":   true,
	"ivar":   true,
	"raise":  true,
	"raises": true,
	"var":    true,
}

var (
	codeRe   = regexp.MustCompile("`([^`]+)`")
	boldRe   = regexp.MustCompile(`\*([^*]+)\*`)
	italicRe = regexp.MustCompile(`_([^_]+)_`)
)

// Enrich parses the raw docstring on one node and attaches the structured
// result. Nodes without a raw doc pass through untouched.
func Enrich(n *objdoc.Node) {
	if n == nil || n.Docs == nil || n.Docs.Doc == "" {
		return
	}
	summary, body, tags := parse(n.Docs.Doc)
	n.Docs.Summary = summary
	n.Docs.Body = body
	n.Docs.Javadoc = tags
	crossLink(n)
}

// EnrichTree applies Enrich to the node and every descendant reachable
// through dict members and accessor slots. Refs are left alone; their
// targets are enriched where they are defined.
func EnrichTree(n *objdoc.Node) {
	if n == nil || n.IsRef() {
		return
	}
	Enrich(n)
	for _, child := range n.Dict {
		EnrichTree(child)
	}
	EnrichTree(n.Func)
	EnrichTree(n.Get)
	EnrichTree(n.Set)
	EnrichTree(n.Del)
}

// parse runs the text pipeline: normalize, strip javadoc tags out of the
// line flow, then split what remains into a summary paragraph and a
// formatted body.
func parse(raw string) (summary, body string, tags []*objdoc.JavadocTag) {
	lines := normalize(raw)
	docLines, tags := scanTags(lines)
	paras := splitParagraphs(docLines)
	if len(paras) == 0 {
		return "", "", tags
	}

	joined := make([]string, len(paras[0]))
	for i, l := range paras[0] {
		joined[i] = strings.TrimSpace(l)
	}
	summary = inline(escape(strings.Join(joined, " ")))

	var b strings.Builder
	for i := 1; i < len(paras); i++ {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatParagraph(paras[i], paras[i-1]))
	}
	return summary, b.String(), tags
}

// normalize expands tabs, strips trailing whitespace per line, and removes
// the common indentation that the source position of the docstring imposed
// on its continuation lines.
func normalize(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(expandTabs(l), " \t")
	}

	// First line sits right after the opening quote and carries no
	// indentation of its own; dedent the rest.
	margin := -1
	for _, l := range lines[1:] {
		if l == "" {
			continue
		}
		ind := indentOf(l)
		if margin < 0 || ind < margin {
			margin = ind
		}
	}
	if margin > 0 {
		for i, l := range lines[1:] {
			if len(l) >= margin {
				lines[i+1] = l[margin:]
			}
		}
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func indentOf(l string) int {
	return len(l) - len(strings.TrimLeft(l, " "))
}

// scanTags removes javadoc tag lines from the text flow. A line whose
// first token starts with "@" opens a tag; following non-blank lines
// indented at least as deep as the tag line continue its text.
func scanTags(lines []string) ([]string, []*objdoc.JavadocTag) {
	var docLines []string
	var tags []*objdoc.JavadocTag
	var cur *objdoc.JavadocTag
	curIndent := 0

	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "@") {
			if opened := parseTagLine(trimmed); len(opened) > 0 {
				tags = append(tags, opened...)
				cur = opened[len(opened)-1]
				curIndent = indentOf(l)
				continue
			}
		}
		if cur != nil && trimmed != "" && indentOf(l) >= curIndent {
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += trimmed
			continue
		}
		cur = nil
		docLines = append(docLines, l)
	}
	return docLines, tags
}

// parseTagLine tokenizes one tag-opening line. A "@name" token starts a
// new tag record; for arg-taking tags the next token becomes the argument
// and the rest joins the text. Several tags may share one line.
func parseTagLine(s string) []*objdoc.JavadocTag {
	var out []*objdoc.JavadocTag
	var cur *objdoc.JavadocTag
	expectArg := false
	for _, tok := range strings.Fields(s) {
		if len(tok) > 1 && tok[0] == '@' && isTagName(tok[1:]) {
			cur = &objdoc.JavadocTag{Tag: tok[1:]}
			out = append(out, cur)
			expectArg = argTags[cur.Tag]
			continue
		}
		if cur == nil {
			continue
		}
		if expectArg {
			cur.Arg = tok
			expectArg = false
			continue
		}
		if cur.Text != "" {
			cur.Text += " "
		}
		cur.Text += tok
	}
	return out
}

func isTagName(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}

func splitParagraphs(lines []string) [][]string {
	var paras [][]string
	var cur []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if len(cur) > 0 {
				paras = append(paras, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		paras = append(paras, cur)
	}
	return paras
}

// formatParagraph renders one body paragraph. Doctest blocks and the
// indented continuation of a colon-terminated paragraph stay preformatted;
// everything else becomes a normal paragraph with inline formatting.
func formatParagraph(para, prev []string) string {
	if strings.HasPrefix(strings.TrimSpace(para[0]), ">>>") {
		return pre(para, "doctest")
	}
	if endsWithColon(prev) && minIndent(para) > minIndent(prev) {
		return pre(para, "code")
	}
	joined := make([]string, len(para))
	for i, l := range para {
		joined[i] = strings.TrimSpace(l)
	}
	return "<p>" + inline(escape(strings.Join(joined, " "))) + "</p>"
}

func pre(para []string, class string) string {
	margin := minIndent(para)
	out := make([]string, len(para))
	for i, l := range para {
		if len(l) >= margin {
			l = l[margin:]
		}
		out[i] = escape(l)
	}
	return `<pre class="` + class + `">` + strings.Join(out, "\n") + "</pre>"
}

func endsWithColon(para []string) bool {
	return len(para) > 0 && strings.HasSuffix(strings.TrimSpace(para[len(para)-1]), ":")
}

func minIndent(para []string) int {
	min := -1
	for _, l := range para {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if ind := indentOf(l); min < 0 || ind < min {
			min = ind
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func inline(s string) string {
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	s = boldRe.ReplaceAllString(s, "<b>$1</b>")
	s = italicRe.ReplaceAllString(s, "<i>$1</i>")
	return s
}

// crossLink copies tag documentation onto the signature. The exceptions
// list is rebuilt from scratch each time so repeated enrichment does not
// accumulate duplicates.
func crossLink(n *objdoc.Node) {
	sig := n.Sig
	if sig == nil {
		return
	}

	var exceptions []*objdoc.Exception
	for _, t := range n.Docs.Javadoc {
		switch t.Tag {
		case "param":
			if p := findParam(sig, t.Arg); p != nil {
				p.Doc = t.Text
			} else {
				slog.Warn("docstring names unknown parameter", "param", t.Arg, "function", n.Name)
			}
		case "type":
			if p := findParam(sig, t.Arg); p != nil {
				p.DocType = t.Text
			} else {
				slog.Warn("docstring names unknown parameter", "param", t.Arg, "function", n.Name)
			}
		case "return", "returns":
			if sig.Return == nil {
				sig.Return = &objdoc.Return{}
			}
			sig.Return.Doc = t.Text
		case "rtype":
			if sig.Return == nil {
				sig.Return = &objdoc.Return{}
			}
			sig.Return.DocType = t.Text
		case "raise", "raises":
			exceptions = append(exceptions, &objdoc.Exception{ExcType: t.Arg, Doc: t.Text})
		}
	}
	sig.Exceptions = exceptions
}

func findParam(sig *objdoc.Signature, name string) *objdoc.Param {
	for _, p := range sig.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}
