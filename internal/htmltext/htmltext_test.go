package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{name: "plain text", in: "  Python and SQL  ", out: "Python and SQL"},
		{name: "paragraphs", in: "<p>About us</p><p>We build   things</p>", out: "About us\nWe build things"},
		{name: "list items", in: "<ul><li>Python</li><li>SQL</li></ul>", out: "Python\nSQL"},
		{name: "inline stays inline", in: "<p>Machine <b>Learning</b> team</p>", out: "Machine Learning team"},
		{name: "entities", in: "<p>R&amp;D &gt; 3+ years</p>", out: "R&D > 3+ years"},
		{name: "line breaks", in: "one<br>two<br/>three", out: "one\ntwo\nthree"},
		{name: "script dropped", in: "<p>keep</p><script>var x = '<p>no</p>';</script><style>p{}</style>", out: "keep"},
		{name: "unclosed tags", in: "<div><p>dangling", out: "dangling"},
		{name: "empty", in: "", out: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, ToText(tt.in))
		})
	}
}
