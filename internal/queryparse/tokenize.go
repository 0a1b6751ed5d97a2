// Package queryparse is the minimal tokenizer and recursive-descent parser
// for the grammar in spec.md §6. It is mechanical by design — the
// specification names this layer as "out of CORE scope, write it the way
// a competent engineer would" — and contains no algorithmic content beyond
// straight-line dispatch into engine.Command values.
//
// Grounded on original_source/src/syntacticParser.cpp's keyword-on-
// tokenizedQuery[0] dispatch shape, adapted to Go's error-return idiom
// instead of a global bool-returning parse state.
package queryparse

import "strings"

// Tokenize splits one input line into whitespace-and-comma-delimited
// tokens per spec.md §6, additionally isolating "(", ")", and "=" as their
// own tokens so INSERT's and UPDATE SET's clause syntax round-trips. The
// two-character operators "==", "!=", "<=" and ">=" are kept whole as one
// token each.
func Tokenize(line string) []string {
	runes := []rune(line)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if strings.ContainsRune("=!<>", r) && i+1 < len(runes) && runes[i+1] == '=' {
			b.WriteString(" " + string(r) + "= ")
			i++
			continue
		}
		switch r {
		case ',', '(', ')', '=':
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}
