package paragraph

import "testing"

func TestRemoveDashLine(t *testing.T) {
	if got := removeDashLine("----"); got != "" {
		t.Errorf("removeDashLine(%q) = %q, want empty", "----", got)
	}
	if got := removeDashLine("-- not a rule"); got != "-- not a rule" {
		t.Errorf("removeDashLine kept text wrong: %q", got)
	}
}

func TestRemoveURLs(t *testing.T) {
	line := "[abc](https://foo.bar)ok)"
	if got := removeURLs(line); got != "[abc]ok)" {
		t.Errorf("removeURLs(%q) = %q, want %q", line, got, "[abc]ok)")
	}
}

func TestRemoveImageLinks(t *testing.T) {
	line := "![|400](https://example.com/img.jpg)"
	want := "(https://example.com/img.jpg)"
	if got := removeImageLinks(line); got != want {
		t.Errorf("removeImageLinks(%q) = %q, want %q", line, got, want)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "dash only",
			raw:  "----",
			want: "",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
		{
			name: "single line gets no trailing comma",
			raw:  "hello world\n",
			want: "hello world",
		},
		{
			name: "lines joined with commas",
			raw:  "first\nsecond\nthird\n",
			want: "first,second,third",
		},
		{
			name: "existing punctuation kept",
			raw:  "Is it?\nYes.\nmaybe,\nfine",
			want: "Is it?Yes.maybe,fine",
		},
		{
			name: "image with url removed entirely",
			raw:  "![cover](https://example.com/a.png)\ncaption",
			want: "caption",
		},
		{
			name: "link text kept without url",
			raw:  "see [docs](https://example.com) now",
			want: "see [docs] now",
		},
		{
			name: "rule between lines",
			raw:  "above\n---\nbelow",
			want: "above,below",
		},
		{
			name: "everything removed",
			raw:  "---\n![x]\n(http://a)\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanIsStable(t *testing.T) {
	inputs := []string{
		"one\ntwo\nthree",
		"ends with a question?\nand a statement.",
		"a line,\nanother",
		"single",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not stable for %q: once %q, twice %q", in, once, twice)
		}
	}
}
