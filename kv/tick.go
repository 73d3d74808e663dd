package kv

import "strings"

// Tick rewrites the escaped separators of an encoded string so nested
// levels stay readable: at depth d the escaped forms of '&' and '='
// ("%" + "25"*(d-1) + "26" or "3D") become d backticks followed by the
// literal character, and '+' becomes a space. Passes repeat until one
// changes nothing, so Tick(Tick(s)) == Tick(s).
func Tick(s string) string {
	for {
		next, n := tickPass(s)
		if n == 0 {
			return next
		}
		s = next
	}
}

var markers = [...]struct{ hex, lit string }{
	{"26", "&"},
	{"3D", "="},
}

func tickPass(s string) (string, int) {
	n := 0
	for d := 1; ; d++ {
		esc := "%" + strings.Repeat("25", d-1)
		if !strings.Contains(s, esc) {
			break
		}
		ticks := strings.Repeat("`", d)
		for _, m := range markers {
			pat := esc + m.hex
			if c := strings.Count(s, pat); c > 0 {
				s = strings.ReplaceAll(s, pat, ticks+m.lit)
				n += c
			}
		}
	}
	if c := strings.Count(s, "+"); c > 0 {
		s = strings.ReplaceAll(s, "+", " ")
		n += c
	}
	return s, n
}

// Untick undoes Tick on the output of an encoder. A backtick run not
// followed by '&' or '=' is kept as is.
func Untick(s string) string {
	if !isTicked(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ':
			b.WriteByte('+')
			continue
		case '`':
		default:
			b.WriteByte(c)
			continue
		}
		j := i
		for j < len(s) && s[j] == '`' {
			j++
		}
		if j == len(s) || (s[j] != '&' && s[j] != '=') {
			b.WriteString(s[i:j])
			i = j - 1
			continue
		}
		b.WriteByte('%')
		for range j - i - 1 {
			b.WriteString("25")
		}
		if s[j] == '&' {
			b.WriteString("26")
		} else {
			b.WriteString("3D")
		}
		i = j
	}
	return b.String()
}

// isTicked reports whether s holds characters query escaping never
// produces.
func isTicked(s string) bool {
	return strings.ContainsAny(s, "` ")
}
