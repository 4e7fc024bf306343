package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/nhath/ezgrid/internal/db"
)

// DefaultStyle matches the default theme palette
const DefaultStyle = "nord"

func lexerFor(t db.DriverType) chroma.Lexer {
	var l chroma.Lexer
	switch t {
	case db.Postgres:
		l = lexers.Get("postgresql")
	case db.MySQL:
		l = lexers.Get("mysql")
	}
	if l == nil {
		l = lexers.Get("sql")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// SQL returns sql highlighted for a 256 color terminal in the dialect of t.
// If highlighting fails the input is returned unchanged.
func SQL(sql string, t db.DriverType, style string) string {
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	f := formatters.Get("terminal256")
	if f == nil {
		return sql
	}

	it, err := lexerFor(t).Tokenise(nil, sql)
	if err != nil {
		return sql
	}
	var b strings.Builder
	if err := f.Format(&b, s, it); err != nil {
		return sql
	}
	return b.String()
}
