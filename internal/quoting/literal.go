package quoting

import "strings"

// Literal renders s as a single-quoted SQL string. It is only used where a
// value has to appear inline: query logs and policy mask replacements.
// Anything supplied by a user belongs in a bound parameter instead; escaping
// cannot cover every MySQL multi-byte character set.
func Literal(s string) string {
	return "'" + EscapeString(s) + "'"
}

// EscapeString doubles single quotes and escapes backslashes, which keeps
// the result valid for MySQL as well as Postgres and SQLite.
func EscapeString(s string) string {
	return strings.NewReplacer(`\`, `\\`, "'", "''").Replace(s)
}

// likeEscaper makes %, _ and the escape character itself match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// LikePrefix returns a LIKE pattern matching values that start with s.
func LikePrefix(s string) string { return likeEscaper.Replace(s) + "%" }

// LikeSuffix returns a LIKE pattern matching values that end with s.
func LikeSuffix(s string) string { return "%" + likeEscaper.Replace(s) }

// LikeContains returns a LIKE pattern matching values that contain s.
func LikeContains(s string) string { return "%" + likeEscaper.Replace(s) + "%" }
