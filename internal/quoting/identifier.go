// Package quoting quotes identifiers and string literals for the supported
// dialects.
package quoting

import (
	"regexp"
	"strings"
)

var (
	plainIdent  = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
	dottedIdent = regexp.MustCompile(`^[\p{L}\p{N}_-]+\.[^ *]*$`)
	starIdent   = regexp.MustCompile(`^[\p{L}\p{N}_-]+\.\*$`)
	funcIdent   = regexp.MustCompile(`^([\p{L}\p{N}_-]+)\((.*)\)$`)
	aliasIdent  = regexp.MustCompile(`(?i)^([\p{L}\p{N}_-]+(?:\.[\p{L}\p{N}_\s-]+|\(.*\))*)\s+AS\s*([\p{L}\p{N}_-]+)$`)
	spacedIdent = regexp.MustCompile(`^([\p{L}\p{N}_-]+\.[\p{L}\p{N}_][\p{L}\p{N}_\s-]*[\p{L}\p{N}_])(.*)`)
	leadIdent   = regexp.MustCompile(`^[\p{L}\p{N}_\s-]*[\p{L}\p{N}_-]+`)
)

// DoubleQuote wraps a single name part in double quotes, doubling embedded
// ones. Postgres and SQLite use it.
func DoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Backtick wraps a single name part in backticks for MySQL, doubling
// embedded ones.
func Backtick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Identifier quotes every name part of a field reference with quote, which
// is DoubleQuote or Backtick. It understands "*", "name", "table.name",
// "table.*", "FUNC(field)" and "field AS alias". Text it cannot recognise is
// returned unchanged.
func Identifier(ident string, quote func(string) string) string {
	ident = strings.TrimSpace(ident)
	if ident == "" || ident == "*" {
		return ident
	}
	if plainIdent.MatchString(ident) {
		return quote(ident)
	}
	if dottedIdent.MatchString(ident) {
		return quoteParts(ident, quote)
	}
	if starIdent.MatchString(ident) {
		return quote(strings.TrimSuffix(ident, ".*")) + ".*"
	}
	if m := funcIdent.FindStringSubmatch(ident); m != nil {
		return m[1] + "(" + Identifier(m[2], quote) + ")"
	}
	if m := aliasIdent.FindStringSubmatch(ident); m != nil {
		return Identifier(m[1], quote) + " AS " + Identifier(m[2], quote)
	}
	if m := spacedIdent.FindStringSubmatch(ident); m != nil {
		return quoteParts(m[1], quote) + m[2]
	}
	if leadIdent.MatchString(ident) {
		return quote(ident)
	}
	return ident
}

func quoteParts(ident string, quote func(string) string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
