package script

import (
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
)

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box "B" :size v)`,
			expect: `(box "B" "__kw_size" v)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :radius 2 :height 10)`,
			expect: `(cylinder "__kw_radius" 2 "__kw_height" 10)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "edge reference preserved",
			input:  `(fillet s :edges "B_NX|B_PZ")`,
			expect: `(fillet s "__kw_edges" "B_NX|B_PZ")`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(face-names s)`,
			expect: `(face_names s)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:tiny-ratio`,
			expect: `"__kw_tiny-ratio"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpStr{S: "B"},
		&zygo.SexpStr{S: kwPrefix + "size"}, &zygo.SexpInt{Val: 3},
		&zygo.SexpInt{Val: 7},
		&zygo.SexpStr{S: kwPrefix + "debug"},
	}
	ca := splitArgs(args)
	if len(ca.pos) != 2 {
		t.Fatalf("positional = %d, want 2", len(ca.pos))
	}
	if n, err := number(ca.named["size"]); err != nil || n != 3 {
		t.Errorf("size = %v, %v", n, err)
	}
	if v, ok := ca.named["debug"]; !ok || v != zygo.SexpNull {
		t.Errorf("trailing keyword should be a flag, got %v", v)
	}
}

func TestKeywordOrString(t *testing.T) {
	for _, in := range []zygo.Sexp{&zygo.SexpStr{S: kwPrefix + "inset"}, &zygo.SexpStr{S: "inset"}} {
		got, err := keywordOrString(in)
		if err != nil || got != "inset" {
			t.Errorf("keywordOrString(%v) = %q, %v", in, got, err)
		}
	}
	if _, err := keywordOrString(&zygo.SexpInt{Val: 1}); err == nil {
		t.Error("expected error for number")
	}
}
