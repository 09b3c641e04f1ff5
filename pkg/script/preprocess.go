package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// kwPrefix marks a string literal that was written as a :keyword.
const kwPrefix = "__kw_"

// preprocessSource rewrites modelling script syntax into something zygomys
// reads. Outside string literals it turns :name into the string "__kw_name",
// face-names into face_names and ; comments into // comments. The := operator
// and binary minus are left alone.
func preprocessSource(source string) string {
	r := rewriter{src: source}
	r.out.Grow(len(source) + len(source)/4)
	for r.i < len(r.src) {
		switch c := r.src[r.i]; {
		case c == '"':
			r.quoted('"', true)
		case c == '`':
			r.quoted('`', false)
		case c == ';':
			r.comment()
		case c == ':' && r.keyword():
		case c == '-' && r.kebab():
			r.out.WriteByte('_')
			r.i++
		default:
			r.out.WriteByte(c)
			r.i++
		}
	}
	return r.out.String()
}

type rewriter struct {
	src string
	i   int
	out strings.Builder
}

// quoted copies a literal through its closing delimiter.
func (r *rewriter) quoted(end byte, escapes bool) {
	start := r.i
	r.i++
	for r.i < len(r.src) && r.src[r.i] != end {
		if escapes && r.src[r.i] == '\\' && r.i+1 < len(r.src) {
			r.i++
		}
		r.i++
	}
	if r.i < len(r.src) {
		r.i++
	}
	r.out.WriteString(r.src[start:r.i])
}

// comment collapses a run of semicolons into // and copies the rest of the line.
func (r *rewriter) comment() {
	for r.i < len(r.src) && r.src[r.i] == ';' {
		r.i++
	}
	end := strings.IndexByte(r.src[r.i:], '\n')
	if end < 0 {
		end = len(r.src) - r.i
	}
	r.out.WriteString("//")
	r.out.WriteString(r.src[r.i : r.i+end])
	r.i += end
}

func (r *rewriter) keyword() bool {
	if r.i+1 >= len(r.src) || !isLetter(r.src[r.i+1]) {
		return false
	}
	j := r.i + 1
	for j < len(r.src) && (isIdentChar(r.src[j]) || r.src[j] == '-') {
		j++
	}
	fmt.Fprintf(&r.out, "%q", kwPrefix+r.src[r.i+1:j])
	r.i = j
	return true
}

// kebab reports whether the hyphen at r.i joins two identifier parts.
func (r *rewriter) kebab() bool {
	return r.i > 0 && r.i+1 < len(r.src) &&
		isIdentChar(r.src[r.i-1]) && isLetter(r.src[r.i+1])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// callArgs is a builtin's argument list split into keyword and positional
// values.
type callArgs struct {
	named map[string]zygo.Sexp
	pos   []zygo.Sexp
}

// keyword returns the name of a rewritten :keyword.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, kwPrefix), true
}

// splitArgs pairs each keyword with the value after it. A keyword in last
// position is a flag and maps to nil.
func splitArgs(args []zygo.Sexp) callArgs {
	ca := callArgs{named: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			ca.pos = append(ca.pos, args[i])
			continue
		}
		if i+1 < len(args) {
			i++
			ca.named[name] = args[i]
		} else {
			ca.named[name] = zygo.SexpNull
		}
	}
	return ca
}

func number(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func stringValue(s zygo.Sexp) (string, error) {
	if v, ok := s.(*zygo.SexpStr); ok {
		return v.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

// keywordOrString accepts :inset as well as "inset".
func keywordOrString(s zygo.Sexp) (string, error) {
	if name, ok := keyword(s); ok {
		return name, nil
	}
	v, err := stringValue(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string, got %s", s.SexpString(nil))
	}
	return v, nil
}

// listItems flattens a list or array; nil is the empty list.
func listItems(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	}
	if s == zygo.SexpNull {
		return nil, nil
	}
	return nil, fmt.Errorf("expected list, got %s", s.SexpString(nil))
}
