package main

import (
	"slices"
	"strings"

	"github.com/bawdo/sqlexpr/driver"
)

var commandNames = []string{"connect", "disconnect", "driver", "exit", "help", "quote", "tables"}

var documentKeys = []string{
	"delete:", "distinct:", "epilog:", "from:", "group:", "having:", "insert:", "join:",
	"limit:", "offset:", "order:", "page:", "plugins:", "select:", "types:", "union:",
	"union_all:", "update:", "vars:", "where:", "with:",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *session
}

// Do returns the suffixes completing the word before pos.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	text := string(line[:pos])
	prefix := lastToken(text)
	head := strings.TrimSpace(strings.TrimSuffix(text, prefix))

	var candidates []string
	switch {
	case strings.EqualFold(head, "driver"):
		candidates = filterPrefix(driver.Names(), prefix)
	case strings.EqualFold(head, "quote"):
		candidates = filterPrefix([]string{"off", "on"}, prefix)
	case strings.HasSuffix(head, ":") || strings.HasSuffix(head, "["):
		candidates = filterPrefix(c.sess.tables, prefix)
	case head == "" && len(c.sess.buf) == 0 && !strings.HasPrefix(text, " "):
		candidates = filterPrefix(append(slices.Clone(commandNames), documentKeys...), prefix)
	case strings.TrimSpace(text) == prefix:
		candidates = filterPrefix(documentKeys, prefix)
	}

	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]+" "))
	}
	return newLine, len([]rune(prefix))
}

func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return slices.Clone(items)
	}
	lower := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lower) && len(item) >= len(prefix) {
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the text after the last separator.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t["); i >= 0 {
		return s[i+1:]
	}
	return s
}
