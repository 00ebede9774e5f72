package text

import "testing"

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraphs", `<p>Hello <b>world</b></p><p>Second</p>`, "Hello world\n\nSecond"},
		{"whitespace", "<div>  lots \n of\t space </div>", "lots of space"},
		{"line break", `<p>one<br>two</p>`, "one\ntwo"},
		{"link", `<p><a href="https://example.com/x">Visit</a> now</p>`, "Visit (https://example.com/x) now"},
		{"link text is url", `<a href="https://example.com">https://example.com</a>`, "https://example.com"},
		{"anchor link", `<a href="#top">Top</a>`, "Top"},
		{"list", `<ul><li>One</li><li>Two</li></ul>`, "- One\n- Two"},
		{"table cells", `<table><tr><td>a</td><td>b</td></tr><tr><td>c</td></tr></table>`, "a b\nc"},
		{"hidden", `<div style="display: none">secret</div><p>shown</p>`, "shown"},
		{"hidden attribute", `<span hidden>secret</span>shown`, "shown"},
		{"style and script", `<style>p{}</style><script>x()</script>text`, "text"},
		{"image alt", `<p>Logo: <img src="l.png" alt="ACME"></p>`, "Logo: ACME"},
		{"entities", `<p>Tom &amp; Jerry</p>`, "Tom & Jerry"},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromHTML(tt.input); got != tt.want {
				t.Errorf("FromHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}
