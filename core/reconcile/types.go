package reconcile

import "maps"

// Source identifies which version of a document a snapshot was taken from.
type Source string

const (
	// SourceMemory is the editor's working copy.
	SourceMemory Source = "memory"
	// SourceBaseline is the copy recorded at the last synchronization with storage.
	SourceBaseline Source = "baseline"
	// SourceExternal is the file as currently found on storage.
	SourceExternal Source = "external"
)

// Record is a single bibliographic entry.
// Records have no identity beyond their content.
type Record struct {
	// Type is the entry type tag (e.g., "article", "book").
	Type string `json:"type" yaml:"type"`

	// Key is the optional citation key.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Fields holds the named field values.
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// Field returns the value of the named field. An empty value is reported as absent.
func (r Record) Field(name string) (string, bool) {
	v, ok := r.Fields[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Fields = maps.Clone(r.Fields)
	return out
}

// Equal reports whether two records have the same type, key and fields.
func (r Record) Equal(other Record) bool {
	return r.Type == other.Type && r.Key == other.Key && maps.Equal(r.Fields, other.Fields)
}

// Definition is a named reusable text macro (a BibTeX @string).
type Definition struct {
	// ID is local to the snapshot and never compared across snapshots.
	ID string `json:"id" yaml:"id"`
	// Name is the macro name.
	Name string `json:"name" yaml:"name"`
	// Content is the macro expansion.
	Content string `json:"content" yaml:"content"`
}

// GroupNode is a node of the grouping tree stored in the metadata block.
type GroupNode struct {
	Kind     string       `json:"kind" yaml:"kind"`
	Name     string       `json:"name" yaml:"name"`
	Payload  string       `json:"payload,omitempty" yaml:"payload,omitempty"`
	Children []*GroupNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Equal compares two trees as a whole. Two nil trees are equal.
func (g *GroupNode) Equal(other *GroupNode) bool {
	if g == nil || other == nil {
		return g == nil && other == nil
	}
	if g.Kind != other.Kind || g.Name != other.Name || g.Payload != other.Payload {
		return false
	}
	if len(g.Children) != len(other.Children) {
		return false
	}
	for i := range g.Children {
		if !g.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree.
func (g *GroupNode) Clone() *GroupNode {
	if g == nil {
		return nil
	}
	out := &GroupNode{Kind: g.Kind, Name: g.Name, Payload: g.Payload}
	for _, child := range g.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// Metadata is the document-level metadata block.
type Metadata struct {
	// Values holds key/value settings.
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
	// Groups is the optional grouping tree.
	Groups *GroupNode `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// IsEmpty reports whether the block has neither values nor a grouping tree.
func (m Metadata) IsEmpty() bool {
	return len(m.Values) == 0 && m.Groups == nil
}

// Equal compares values and the whole grouping tree.
func (m Metadata) Equal(other Metadata) bool {
	if len(m.Values) != len(other.Values) {
		return false
	}
	if len(m.Values) > 0 && !maps.Equal(m.Values, other.Values) {
		return false
	}
	return m.Groups.Equal(other.Groups)
}

// Clone returns a deep copy of the block.
func (m Metadata) Clone() Metadata {
	return Metadata{Values: maps.Clone(m.Values), Groups: m.Groups.Clone()}
}

// Snapshot is one versioned view of a whole document.
type Snapshot struct {
	Source      Source       `json:"source" yaml:"source"`
	Records     []Record     `json:"records" yaml:"records"`
	Definitions []Definition `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Preamble    *string      `json:"preamble,omitempty" yaml:"preamble,omitempty"`
	Metadata    Metadata     `json:"metadata" yaml:"metadata"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Source:      s.Source,
		Records:     make([]Record, len(s.Records)),
		Definitions: make([]Definition, len(s.Definitions)),
		Metadata:    s.Metadata.Clone(),
	}
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	copy(out.Definitions, s.Definitions)
	if s.Preamble != nil {
		p := *s.Preamble
		out.Preamble = &p
	}
	return out
}

// WithSource returns a shallow copy of the snapshot relabelled with the given source.
func (s *Snapshot) WithSource(src Source) *Snapshot {
	out := *s
	out.Source = src
	return &out
}

// Config holds the scan tuning parameters.
type Config struct {
	// MatchThreshold is the minimum (exclusive) similarity for a fuzzy match.
	MatchThreshold float64 `mapstructure:"match_threshold" default:"0.4"`
}
