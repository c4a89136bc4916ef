package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLKeepsFormatting(t *testing.T) {
	s := New()

	out := s.HTML(`<p>Hello <strong>there</strong> <em>friend</em></p><ul><li>one</li></ul>`)

	assert.Equal(t, `<p>Hello <strong>there</strong> <em>friend</em></p><ul><li>one</li></ul>`, out)
}

func TestHTMLRemovesScriptsAndHandlers(t *testing.T) {
	s := New()

	out := s.HTML(`<p onclick="steal()">hi</p><script>alert(1)</script><style>p{}</style>`)

	assert.Equal(t, `<p>hi</p>`, out)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
}

func TestHTMLRejectsJavascriptLinks(t *testing.T) {
	s := New()

	out := s.HTML(`<a href="javascript:alert(1)">x</a>`)

	assert.NotContains(t, out, "javascript")
}

func TestHTMLKeepsTableSpans(t *testing.T) {
	s := New()

	out := s.HTML(`<table class="grid"><tr><td colspan="2" style="color:red">a</td></tr></table>`)

	assert.Contains(t, out, `colspan="2"`)
	assert.Contains(t, out, `class="grid"`)
	assert.NotContains(t, out, "style")
}

func TestTextStripsEverything(t *testing.T) {
	assert.Equal(t, "Network issues", New().Text(`<b>Network</b> issues`))
}

func TestTextKeepsPunctuationUnescaped(t *testing.T) {
	in := `I can't log in & the "reset" link <i>fails</i>`

	assert.Equal(t, `I can't log in & the "reset" link fails`, New().Text(in))
}
