package main

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const maxRows = 1000

var printer = message.NewPrinter(language.English)

func formatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	truncated := len(rows) > maxRows
	total := len(rows)
	if truncated {
		rows = rows[:maxRows]
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	sep := buildSeparator(widths)

	b.WriteString(sep)
	b.WriteByte('|')
	for i, c := range columns {
		fmt.Fprintf(&b, " %-*s |", widths[i], c)
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	for _, row := range rows {
		b.WriteByte('|')
		for i, cell := range row {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}
	b.WriteString(sep)
	b.WriteString(rowCount(total))
	if truncated {
		b.WriteString(printer.Sprintf("(truncated at %d rows)\n", maxRows))
	}
	return b.String()
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)\n"
	}
	return printer.Sprintf("(%d rows)\n", n)
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

// sanitizeDSN masks the password of URL and MySQL style DSNs.
func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	if at := strings.Index(dsn, "@"); at > 0 {
		userPass := dsn[:at]
		if colon := strings.Index(userPass, ":"); colon >= 0 {
			return userPass[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}
