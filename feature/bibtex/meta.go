package bibtex

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bibsync/core/reconcile"
)

const (
	metaPrefix  = "jabref-meta:"
	groupingKey = "grouping"

	// groupSeparator splits the fields of a group payload; the first field is the name.
	groupSeparator = `\;`
)

// parseMeta stores one "key:value;" metadata comment into m.
func parseMeta(m *reconcile.Metadata, body string, line int) error {
	key, value, ok := strings.Cut(strings.TrimSpace(body), ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return &ParseError{Line: line, Msg: "malformed jabref-meta comment"}
	}

	if key == groupingKey {
		root, err := parseGroups(value, line)
		if err != nil {
			return err
		}
		m.Groups = root
		return nil
	}

	if m.Values == nil {
		m.Values = map[string]string{}
	}
	m.Values[key] = strings.TrimSuffix(strings.TrimSpace(value), ";")
	return nil
}

// parseGroups builds the group tree from "<level> <Kind>:<payload>;" lines.
func parseGroups(text string, line int) (*reconcile.GroupNode, error) {
	var (
		root  *reconcile.GroupNode
		stack []*reconcile.GroupNode
	)

	for i, raw := range strings.Split(text, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" {
			continue
		}
		at := line + i

		levelText, rest, ok := strings.Cut(l, " ")
		level, err := strconv.Atoi(levelText)
		if !ok || err != nil || level < 0 {
			return nil, &ParseError{Line: at, Msg: fmt.Sprintf("malformed group line %q", l)}
		}
		kind, payload, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, &ParseError{Line: at, Msg: fmt.Sprintf("malformed group line %q", l)}
		}

		node := &reconcile.GroupNode{
			Kind:    strings.TrimSpace(kind),
			Payload: strings.TrimSuffix(payload, ";"),
		}
		node.Name, _, _ = strings.Cut(node.Payload, groupSeparator)

		switch {
		case level == 0 && root != nil:
			return nil, &ParseError{Line: at, Msg: "more than one root group"}
		case level == 0:
			root = node
		case level > len(stack):
			return nil, &ParseError{Line: at, Msg: fmt.Sprintf("group level %d has no parent", level)}
		default:
			parent := stack[level-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack[:level], node)
	}
	return root, nil
}

// writeMeta emits the metadata block: values sorted by key, then the group tree.
func writeMeta(b *strings.Builder, m reconcile.Metadata) {
	keys := make([]string, 0, len(m.Values))
	for k := range m.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "@Comment{%s %s:%s;}\n\n", metaPrefix, k, m.Values[k])
	}

	if m.Groups != nil {
		fmt.Fprintf(b, "@Comment{%s %s:\n", metaPrefix, groupingKey)
		writeGroup(b, m.Groups, 0)
		b.WriteString("}\n")
	}
}

func writeGroup(b *strings.Builder, g *reconcile.GroupNode, level int) {
	payload := g.Payload
	if payload == "" && g.Name != "" {
		payload = g.Name
	}
	fmt.Fprintf(b, "%d %s:%s;\n", level, g.Kind, payload)
	for _, child := range g.Children {
		writeGroup(b, child, level+1)
	}
}
