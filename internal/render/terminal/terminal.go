// Package terminal renders an objdoc tree for an ANSI terminal.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"supdoc/internal/objdoc"
)

type Options struct {
	// ShowPrivate includes leading-underscore names, ShowImported keeps
	// members whose definition lives in another module, ShowSource prints
	// captured source text under each definition.
	ShowPrivate  bool
	ShowImported bool
	ShowSource   bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	refStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	docStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var tagRe = regexp.MustCompile(`</?[a-z]+[^>]*>`)

type Renderer struct {
	w    *quietWriter
	opts Options
}

func New(w io.Writer, opts Options) *Renderer {
	return &Renderer{w: &quietWriter{w: w}, opts: opts}
}

// Render prints the document for one named object. A closed pager (EPIPE)
// ends output silently.
func (r *Renderer) Render(name string, doc *objdoc.Node) error {
	r.renderHeader(name, doc)
	r.renderDocs(doc, "  ")
	r.renderMembers(doc)
	if r.w.broken {
		return nil
	}
	return r.w.err
}

func (r *Renderer) renderHeader(name string, doc *objdoc.Node) {
	header := titleStyle.Render(name)
	if doc.TypeName != "" {
		header += " " + kindStyle.Render("("+doc.TypeName+")")
	}
	r.printf("%s\n", header)

	if doc.Sig != nil {
		r.printf("  %s\n", nameStyle.Render(FormatSignature(leaf(name), doc.Sig)))
	}
	if len(doc.Bases) > 0 {
		r.printf("  %s %s\n", kindStyle.Render("bases:"), strings.Join(refTargets(doc.Bases), ", "))
	}
	if doc.Source != nil && doc.Source.File != "" {
		r.printf("  %s %s:%d\n", kindStyle.Render("defined:"), doc.Source.File, doc.Source.StartLine)
	}
	r.printf("\n")
}

func (r *Renderer) renderDocs(doc *objdoc.Node, indent string) {
	if doc.Docs == nil {
		return
	}
	if doc.Docs.Summary != "" {
		r.printf("%s%s\n", indent, docStyle.Render(plainText(doc.Docs.Summary)))
	}
	if doc.Docs.Body != "" {
		for _, para := range strings.Split(doc.Docs.Body, "\n") {
			if t := plainText(para); t != "" {
				r.printf("%s%s\n", indent, docStyle.Render(t))
			}
		}
	}
	if doc.Docs.Summary != "" || doc.Docs.Body != "" {
		r.printf("\n")
	}
}

func (r *Renderer) renderMembers(doc *objdoc.Node) {
	groups := map[string][]string{}
	for name, member := range doc.Dict {
		if !r.opts.ShowPrivate && strings.HasPrefix(name, "_") {
			continue
		}
		if member.IsRef() {
			if !r.opts.ShowImported {
				continue
			}
			groups["imported"] = append(groups["imported"], name)
			continue
		}
		groups[groupOf(member)] = append(groups[groupOf(member)], name)
	}

	for _, section := range []string{"classes", "functions", "properties", "values", "imported"} {
		names := groups[section]
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		r.printf("%s\n", sectionStyle.Render(strings.ToUpper(section)))
		for _, name := range names {
			r.renderMember(name, doc.Dict[name])
		}
		r.printf("\n")
	}
}

func (r *Renderer) renderMember(name string, member *objdoc.Node) {
	if member.IsRef() {
		r.printf("  %s %s\n", nameStyle.Render(name), refStyle.Render("= "+refTarget(member)))
		return
	}

	label := name
	if member.Sig != nil {
		label = FormatSignature(name, member.Sig)
	}
	r.printf("  %s\n", nameStyle.Render(label))

	if member.Docs != nil && member.Docs.Summary != "" {
		r.printf("      %s\n", docStyle.Render(plainText(member.Docs.Summary)))
	}
	if r.opts.ShowSource && member.Source != nil && member.Source.Text != "" {
		for _, line := range strings.Split(strings.TrimRight(member.Source.Text, "\n"), "\n") {
			r.printf("      %s\n", sourceStyle.Render(line))
		}
	}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// FormatSignature renders "name(param, param=default) -> annotation".
func FormatSignature(name string, sig *objdoc.Signature) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("(")
	for i, p := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch p.Kind {
		case "VAR_POSITIONAL":
			b.WriteString("*")
		case "VAR_KEYWORD":
			b.WriteString("**")
		}
		b.WriteString(p.Name)
		if p.Annotation != nil {
			b.WriteString(": " + nodeLabel(p.Annotation))
		}
		if p.Default != nil {
			b.WriteString("=" + nodeLabel(p.Default))
		}
	}
	b.WriteString(")")
	if sig.Return != nil && sig.Return.Annotation != nil {
		b.WriteString(" -> " + nodeLabel(sig.Return.Annotation))
	}
	return b.String()
}

func nodeLabel(n *objdoc.Node) string {
	switch {
	case n.IsRef():
		return refTarget(n)
	case n.Name != "":
		return n.Name
	case n.Repr != "":
		return n.Repr
	}
	return "?"
}

func groupOf(n *objdoc.Node) string {
	switch n.TypeName {
	case "type":
		return "classes"
	case "function", "classmethod", "staticmethod":
		return "functions"
	case "property":
		return "properties"
	}
	return "values"
}

func refTargets(nodes []*objdoc.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = refTarget(n)
	}
	return out
}

// refTarget renders a ref as the dotted name it points at.
func refTarget(n *objdoc.Node) string {
	p, err := objdoc.ParseRef(n)
	if err != nil {
		return n.Ref
	}
	return p.String()
}

// plainText strips structured-markup tags and collapses entities for
// terminal display.
func plainText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	return strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">").Replace(s)
}

func leaf(name string) string {
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// quietWriter swallows EPIPE so quitting a pager mid-page is not an error.
type quietWriter struct {
	w      io.Writer
	err    error
	broken bool
}

func (q *quietWriter) Write(p []byte) (int, error) {
	if q.broken || q.err != nil {
		return len(p), nil
	}
	n, err := q.w.Write(p)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) {
			q.broken = true
			return len(p), nil
		}
		q.err = err
	}
	return n, err
}
