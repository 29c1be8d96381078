package db

import (
	"strconv"
	"strings"
)

// Where accumulates AND-ed predicates written with "?" markers and numbers
// them $1, $2, ... in order of appearance, which both drivers accept.
type Where struct {
	clauses []string
	args    []any
}

func (w *Where) Add(clause string, args ...any) *Where {
	var b strings.Builder
	n := 0
	for _, ch := range clause {
		if ch == '?' && n < len(args) {
			w.args = append(w.args, args[n])
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			n++
			continue
		}
		b.WriteRune(ch)
	}
	w.clauses = append(w.clauses, b.String())
	return w
}

// Arg appends a value outside any predicate, e.g. for LIMIT, and returns its
// placeholder.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}
