package changes

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bibsync/core/reconcile"

	"gopkg.in/yaml.v3"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. An empty name selects text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", name)
	}
}

// Render writes report to w in the given format.
func Render(w io.Writer, report *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderText(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan %s of %s against %s: %s", r.ScanID, r.Document, r.Baseline, r.Status)
	if r.Error != "" {
		fmt.Fprintf(&b, ": %s\n", r.Error)
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, " (%d changes)\n", r.Summary.Total)

	for _, e := range r.Changes {
		fmt.Fprintf(&b, "  #%d [%s] %s\n", e.ID, e.Section, Describe(e.Change))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Describe returns a one-line description of a change.
func Describe(c reconcile.Change) string {
	switch c := c.(type) {
	case reconcile.MetadataChange:
		return "metadata changed"
	case reconcile.PreambleChange:
		switch {
		case c.Baseline == nil:
			return "preamble added"
		case c.External == nil:
			return "preamble removed"
		default:
			return "preamble changed"
		}
	case reconcile.DefinitionAdded:
		return fmt.Sprintf("string %s added", c.External.Name)
	case reconcile.DefinitionRemoved:
		return fmt.Sprintf("string %s removed", c.Baseline.Name)
	case reconcile.DefinitionRenamed:
		return fmt.Sprintf("string %s renamed to %s", c.Baseline.Name, c.External.Name) + manual(c.Memory == nil)
	case reconcile.DefinitionContentChanged:
		return fmt.Sprintf("string %s changed", c.Baseline.Name) + manual(c.Memory == nil)
	case reconcile.RecordAdded:
		return label(c.External) + " added"
	case reconcile.RecordRemoved:
		return label(c.Baseline) + " removed" + manual(c.Memory == nil)
	case reconcile.RecordModified:
		return fmt.Sprintf("%s modified (similarity %.2f)", label(c.Baseline), c.Score) + manual(c.Memory == nil)
	case reconcile.GroupingChanged:
		return "groups changed"
	default:
		return string(c.Kind())
	}
}

func manual(missing bool) string {
	if missing {
		return " (not in working copy)"
	}
	return ""
}

func label(r reconcile.Record) string {
	typ := r.Type
	if typ == "" {
		typ = "misc"
	}
	if r.Key != "" {
		return fmt.Sprintf("@%s{%s}", typ, r.Key)
	}
	if title, ok := r.Field("title"); ok {
		return fmt.Sprintf("@%s %q", typ, title)
	}
	return "@" + typ
}
