// Package html renders an objdoc tree as a standalone HTML page, used by
// the documentation server.
package html

import (
	"html/template"
	"io"
	"sort"
	"strings"

	"supdoc/internal/objdoc"
	"supdoc/internal/render/terminal"
)

var page = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; color: #222; }
h1 code, h2 code { background: #f4f4f4; padding: 0 .25rem; }
.kind { color: #888; font-weight: normal; }
.sig { font-family: monospace; background: #f4f4f4; padding: .25rem .5rem; display: inline-block; }
.member { margin: 1rem 0 1rem 1rem; }
.summary { color: #444; }
pre { background: #f4f4f4; padding: .5rem; overflow-x: auto; }
pre.doctest { border-left: 3px solid #8bc; }
.ref { color: #888; font-style: italic; }
</style>
</head>
<body>
<h1><code>{{.Name}}</code> <span class="kind">{{.TypeName}}</span></h1>
{{if .Signature}}<p><span class="sig">{{.Signature}}</span></p>{{end}}
{{if .Bases}}<p class="kind">bases: {{range $i, $b := .Bases}}{{if $i}}, {{end}}<code>{{$b}}</code>{{end}}</p>{{end}}
{{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
{{if .Body}}{{.Body}}{{end}}
{{range .Sections}}
<h2>{{.Title}}</h2>
{{range .Members}}
<div class="member">
{{if .Ref}}<code>{{.Name}}</code> <span class="ref">= {{.Ref}}</span>
{{else}}<code>{{if .Signature}}{{.Signature}}{{else}}{{.Name}}{{end}}</code>
{{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}
{{if .Source}}<pre>{{.Source}}</pre>{{end}}
{{end}}
</div>
{{end}}
{{end}}
</body>
</html>
`))

type Options struct {
	ShowPrivate  bool
	ShowImported bool
	ShowSource   bool
}

type member struct {
	Name      string
	Ref       string
	Signature string
	Summary   template.HTML
	Source    string
}

type section struct {
	Title   string
	Members []member
}

type pageData struct {
	Name      string
	TypeName  string
	Signature string
	Bases     []string
	Summary   template.HTML
	Body      template.HTML
	Sections  []section
}

// Render writes the HTML page for one named document.
func Render(w io.Writer, name string, doc *objdoc.Node, opts Options) error {
	data := pageData{
		Name:     name,
		TypeName: doc.TypeName,
	}
	if doc.Sig != nil {
		data.Signature = terminal.FormatSignature(leaf(name), doc.Sig)
	}
	for _, b := range doc.Bases {
		data.Bases = append(data.Bases, refTarget(b))
	}
	if doc.Docs != nil {
		// Summary and body were escaped and tagged during enrichment;
		// they are trusted markup here.
		data.Summary = template.HTML(doc.Docs.Summary)
		data.Body = template.HTML(doc.Docs.Body)
	}
	data.Sections = sections(doc, opts)
	return page.Execute(w, data)
}

func sections(doc *objdoc.Node, opts Options) []section {
	groups := map[string][]member{}
	for name, n := range doc.Dict {
		if !opts.ShowPrivate && strings.HasPrefix(name, "_") {
			continue
		}
		if n.IsRef() {
			if opts.ShowImported {
				groups["Imported"] = append(groups["Imported"], member{Name: name, Ref: refTarget(n)})
			}
			continue
		}
		m := member{Name: name}
		if n.Sig != nil {
			m.Signature = terminal.FormatSignature(name, n.Sig)
		}
		if n.Docs != nil {
			m.Summary = template.HTML(n.Docs.Summary)
		}
		if opts.ShowSource && n.Source != nil {
			m.Source = n.Source.Text
		}
		groups[titleOf(n)] = append(groups[titleOf(n)], m)
	}

	var out []section
	for _, title := range []string{"Classes", "Functions", "Properties", "Values", "Imported"} {
		members := groups[title]
		if len(members) == 0 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		out = append(out, section{Title: title, Members: members})
	}
	return out
}

func titleOf(n *objdoc.Node) string {
	switch n.TypeName {
	case "type":
		return "Classes"
	case "function", "classmethod", "staticmethod":
		return "Functions"
	case "property":
		return "Properties"
	}
	return "Values"
}

func refTarget(n *objdoc.Node) string {
	p, err := objdoc.ParseRef(n)
	if err != nil {
		return n.Ref
	}
	return p.String()
}

func leaf(name string) string {
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		return name[i+1:]
	}
	return name
}
