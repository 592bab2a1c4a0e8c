package bibtex

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"bibsync/core/reconcile"
)

// months are the macros every BibTeX style predefines.
var months = map[string]struct{}{
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "may": {}, "jun": {},
	"jul": {}, "aug": {}, "sep": {}, "oct": {}, "nov": {}, "dec": {},
}

// Write serializes a snapshot as a .bib document. The output order is
// preamble, string definitions, records in snapshot order, then metadata.
// Field names within a record are sorted.
func Write(w io.Writer, snap *reconcile.Snapshot) error {
	_, err := io.WriteString(w, Format(snap))
	return err
}

// Format returns the .bib text of a snapshot.
func Format(snap *reconcile.Snapshot) string {
	var b strings.Builder
	macros := macroNames(snap.Definitions)

	if snap.Preamble != nil {
		fmt.Fprintf(&b, "@Preamble{%s}\n\n", formatValue(*snap.Preamble, macros))
	}

	for _, d := range snap.Definitions {
		fmt.Fprintf(&b, "@String{%s = %s}\n", d.Name, formatValue(d.Content, macros))
	}
	if len(snap.Definitions) > 0 {
		b.WriteString("\n")
	}

	for _, r := range snap.Records {
		writeRecord(&b, r, macros)
	}

	writeMeta(&b, snap.Metadata)
	return b.String()
}

func writeRecord(b *strings.Builder, r reconcile.Record, macros map[string]struct{}) {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(b, "@%s{%s", typeName(r.Type), r.Key)
	for _, name := range names {
		fmt.Fprintf(b, ",\n  %s = %s", name, formatValue(r.Fields[name], macros))
	}
	b.WriteString("\n}\n\n")
}

// formatValue writes numbers, known macros and # concatenations bare and
// wraps everything else in braces.
func formatValue(v string, macros map[string]struct{}) string {
	if isNumber(v) {
		return v
	}
	if _, ok := macros[strings.ToLower(v)]; ok {
		return v
	}
	if isConcatenation(v) {
		return v
	}
	return "{" + v + "}"
}

func macroNames(defs []reconcile.Definition) map[string]struct{} {
	names := make(map[string]struct{}, len(defs)+len(months))
	for m := range months {
		names[m] = struct{}{}
	}
	for _, d := range defs {
		names[strings.ToLower(d.Name)] = struct{}{}
	}
	return names
}

func isNumber(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// isConcatenation reports whether v is a complete expression of two or more
// parts joined with #.
func isConcatenation(v string) bool {
	if !looksJoined(v) {
		return false
	}
	p := &parser{src: v, line: 1}
	if _, err := p.value(0); err != nil {
		return false
	}
	p.skipSpace()
	return p.eof()
}

// looksJoined reports whether a # sits outside any braces or quotes.
func looksJoined(v string) bool {
	depth := 0
	quoted := false
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0:
			quoted = !quoted
		case c == '#' && depth == 0 && !quoted:
			return true
		}
	}
	return false
}

func typeName(t string) string {
	if t == "" {
		return "Misc"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}
