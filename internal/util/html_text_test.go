package util

import "testing"

func TestHTMLToText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Learn Go fast ", "Learn Go fast"},
		{"paragraphs", "<p>Learn <strong>Go</strong></p><p>Ship it</p>", "Learn Go\nShip it"},
		{"list", "<ul><li>one</li><li>two</li></ul>", "- one\n- two"},
		{"entities", "Tom &amp; Jerry", "Tom & Jerry"},
		{"script", "<p>ok</p><script>alert(1)</script>", "ok"},
	}
	for _, tc := range cases {
		if got := HTMLToText(tc.in); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
