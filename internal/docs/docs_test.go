// # internal/docs/docs_test.go
package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supdoc/internal/objdoc"
)

func enrichDoc(raw string) *objdoc.Node {
	n := &objdoc.Node{Docs: &objdoc.Docs{Doc: raw}}
	Enrich(n)
	return n
}

func TestEnrichSummaryAndBody(t *testing.T) {
	n := enrichDoc("Do the thing.\n\nLonger explanation\nacross lines.\n\nSecond paragraph.")
	assert.Equal(t, "Do the thing.", n.Docs.Summary)
	assert.Equal(t, "<p>Longer explanation across lines.</p>\n<p>Second paragraph.</p>", n.Docs.Body)
}

func TestEnrichDedent(t *testing.T) {
	// Continuation lines carry the indentation of the class body.
	n := enrichDoc("Summary line.\n\n        Body paragraph\n        still body.")
	assert.Equal(t, "Summary line.", n.Docs.Summary)
	assert.Equal(t, "<p>Body paragraph still body.</p>", n.Docs.Body)
}

func TestEnrichInlineFormatting(t *testing.T) {
	n := enrichDoc("Use `f(x)` with *care* and _style_ on a<b.")
	assert.Equal(t, "Use <code>f(x)</code> with <b>care</b> and <i>style</i> on a&lt;b.", n.Docs.Summary)
}

func TestEnrichDoctest(t *testing.T) {
	n := enrichDoc("Adds one.\n\n>>> succ(1)\n2")
	assert.Equal(t, "<pre class=\"doctest\">&gt;&gt;&gt; succ(1)\n2</pre>", n.Docs.Body)
}

func TestEnrichIndentedCode(t *testing.T) {
	n := enrichDoc("Summary.\n\nFor example:\n\n    result = f(1)\n    print(result)")
	assert.Contains(t, n.Docs.Body, "<p>For example:</p>")
	assert.Contains(t, n.Docs.Body, "<pre class=\"code\">result = f(1)\nprint(result)</pre>")
}

func TestEnrichJavadocTags(t *testing.T) {
	n := enrichDoc("Summary.\n\n@param x the input\n@type x int\n@return the output\n@raise ValueError when x is negative")
	require.Len(t, n.Docs.Javadoc, 4)
	assert.Equal(t, "param", n.Docs.Javadoc[0].Tag)
	assert.Equal(t, "x", n.Docs.Javadoc[0].Arg)
	assert.Equal(t, "the input", n.Docs.Javadoc[0].Text)
	assert.Equal(t, "raise", n.Docs.Javadoc[3].Tag)
	assert.Equal(t, "ValueError", n.Docs.Javadoc[3].Arg)
	// Tag lines leave the text body.
	assert.Equal(t, "", n.Docs.Body)
}

func TestEnrichTagContinuation(t *testing.T) {
	n := enrichDoc("Summary.\n\n@param x the input\n    continued over\n    two lines")
	require.Len(t, n.Docs.Javadoc, 1)
	assert.Equal(t, "the input continued over two lines", n.Docs.Javadoc[0].Text)
}

func TestEnrichMultipleTagsOneLine(t *testing.T) {
	n := enrichDoc("@param x first @param y second")
	require.Len(t, n.Docs.Javadoc, 2)
	assert.Equal(t, "x", n.Docs.Javadoc[0].Arg)
	assert.Equal(t, "first", n.Docs.Javadoc[0].Text)
	assert.Equal(t, "y", n.Docs.Javadoc[1].Arg)
	assert.Equal(t, "second", n.Docs.Javadoc[1].Text)
}

func TestCrossLinkSignature(t *testing.T) {
	n := &objdoc.Node{
		Sig: &objdoc.Signature{
			Params: []*objdoc.Param{
				{Name: "x", Kind: "POSITIONAL_OR_KEYWORD"},
				{Name: "y", Kind: "POSITIONAL_OR_KEYWORD"},
			},
		},
		Docs: &objdoc.Docs{Doc: "@param x first @param y second\n@type y int\n@return total\n@raise KeyError missing key"},
	}
	Enrich(n)

	assert.Equal(t, "first", n.Sig.Params[0].Doc)
	assert.Equal(t, "second", n.Sig.Params[1].Doc)
	assert.Equal(t, "int", n.Sig.Params[1].DocType)
	require.NotNil(t, n.Sig.Return)
	assert.Equal(t, "total", n.Sig.Return.Doc)
	require.Len(t, n.Sig.Exceptions, 1)
	assert.Equal(t, "KeyError", n.Sig.Exceptions[0].ExcType)
	assert.Equal(t, "missing key", n.Sig.Exceptions[0].Doc)
}

func TestCrossLinkUnknownParamDoesNotFail(t *testing.T) {
	n := &objdoc.Node{
		Sig:  &objdoc.Signature{Params: []*objdoc.Param{{Name: "x", Kind: "POSITIONAL_OR_KEYWORD"}}},
		Docs: &objdoc.Docs{Doc: "@param nope not a parameter"},
	}
	Enrich(n)
	assert.Equal(t, "", n.Sig.Params[0].Doc)
}

func TestCrossLinkLastReturnWins(t *testing.T) {
	n := &objdoc.Node{
		Sig:  &objdoc.Signature{},
		Docs: &objdoc.Docs{Doc: "@return first answer\n@return second answer"},
	}
	Enrich(n)
	require.NotNil(t, n.Sig.Return)
	assert.Equal(t, "second answer", n.Sig.Return.Doc)
}

func TestEnrichIdempotent(t *testing.T) {
	raw := "Summary with `code`.\n\nBody text.\n\n@param x the input\n@raise ValueError bad input"
	n := &objdoc.Node{
		Sig:  &objdoc.Signature{Params: []*objdoc.Param{{Name: "x", Kind: "POSITIONAL_OR_KEYWORD"}}},
		Docs: &objdoc.Docs{Doc: raw},
	}
	Enrich(n)
	summary, body := n.Docs.Summary, n.Docs.Body
	tagCount := len(n.Docs.Javadoc)
	excCount := len(n.Sig.Exceptions)

	Enrich(n)
	assert.Equal(t, summary, n.Docs.Summary)
	assert.Equal(t, body, n.Docs.Body)
	assert.Len(t, n.Docs.Javadoc, tagCount)
	assert.Len(t, n.Sig.Exceptions, excCount)
}

func TestEnrichTree(t *testing.T) {
	child := &objdoc.Node{Docs: &objdoc.Docs{Doc: "Child summary."}}
	root := &objdoc.Node{
		Docs: &objdoc.Docs{Doc: "Root summary."},
		Dict: map[string]*objdoc.Node{"child": child},
	}
	EnrichTree(root)
	assert.Equal(t, "Root summary.", root.Docs.Summary)
	assert.Equal(t, "Child summary.", child.Docs.Summary)
}

func TestEnrichTabExpansion(t *testing.T) {
	n := enrichDoc("x\ty.")
	assert.NotContains(t, n.Docs.Summary, "\t")
	assert.Equal(t, "x       y.", n.Docs.Summary)
}
