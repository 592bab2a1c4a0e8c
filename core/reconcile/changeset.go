package reconcile

import "encoding/json"

// Kind names a change variant.
type Kind string

const (
	KindMetadata                 Kind = "metadata_changed"
	KindPreamble                 Kind = "preamble_changed"
	KindDefinitionAdded          Kind = "definition_added"
	KindDefinitionRemoved        Kind = "definition_removed"
	KindDefinitionRenamed        Kind = "definition_renamed"
	KindDefinitionContentChanged Kind = "definition_content_changed"
	KindRecordAdded              Kind = "record_added"
	KindRecordRemoved            Kind = "record_removed"
	KindRecordModified           Kind = "record_modified"
	KindGrouping                 Kind = "grouping_changed"
)

// Section groups changes for presentation. Sections appear in a changeset in
// the order they are declared here.
type Section string

const (
	SectionMetadata Section = "metadata"
	SectionPreamble Section = "preamble"
	SectionStrings  Section = "strings"
	SectionEntries  Section = "entries"
	SectionGroups   Section = "groups"
)

// Change is one detected difference between the baseline and the external
// snapshot. The set of implementations is closed; switch on the concrete type.
type Change interface {
	Kind() Kind
	Section() Section
	isChange()
}

// RecordRef points at a record of the memory snapshot by its original index.
type RecordRef struct {
	Index  int    `json:"index" yaml:"index"`
	Record Record `json:"record" yaml:"record"`
}

// DefinitionRef points at a definition of the memory snapshot by its original index.
type DefinitionRef struct {
	Index      int        `json:"index" yaml:"index"`
	Definition Definition `json:"definition" yaml:"definition"`
}

// MetadataChange reports a changed metadata block.
type MetadataChange struct {
	Memory   Metadata `json:"memory" yaml:"memory"`
	Baseline Metadata `json:"baseline" yaml:"baseline"`
	External Metadata `json:"external" yaml:"external"`
}

// PreambleChange reports a changed, added or removed preamble.
type PreambleChange struct {
	Memory   *string `json:"memory" yaml:"memory"`
	Baseline *string `json:"baseline" yaml:"baseline"`
	External *string `json:"external" yaml:"external"`
}

// DefinitionAdded reports a definition that only exists externally.
type DefinitionAdded struct {
	External      Definition `json:"external" yaml:"external"`
	ExternalIndex int        `json:"external_index" yaml:"external_index"`
}

// DefinitionRemoved reports a definition that disappeared externally but is
// still present in memory.
type DefinitionRemoved struct {
	Baseline      Definition     `json:"baseline" yaml:"baseline"`
	BaselineIndex int            `json:"baseline_index" yaml:"baseline_index"`
	Memory        *DefinitionRef `json:"memory" yaml:"memory"`
}

// DefinitionRenamed reports a definition whose name changed but content did not.
type DefinitionRenamed struct {
	Baseline      Definition     `json:"baseline" yaml:"baseline"`
	BaselineIndex int            `json:"baseline_index" yaml:"baseline_index"`
	External      Definition     `json:"external" yaml:"external"`
	ExternalIndex int            `json:"external_index" yaml:"external_index"`
	Memory        *DefinitionRef `json:"memory" yaml:"memory"`
}

// DefinitionContentChanged reports a definition whose content changed.
type DefinitionContentChanged struct {
	Baseline      Definition     `json:"baseline" yaml:"baseline"`
	BaselineIndex int            `json:"baseline_index" yaml:"baseline_index"`
	External      Definition     `json:"external" yaml:"external"`
	ExternalIndex int            `json:"external_index" yaml:"external_index"`
	Memory        *DefinitionRef `json:"memory" yaml:"memory"`
}

// RecordAdded reports an external record with no baseline counterpart.
type RecordAdded struct {
	External      Record `json:"external" yaml:"external"`
	ExternalIndex int    `json:"external_index" yaml:"external_index"`
}

// RecordRemoved reports a baseline record with no acceptable external match.
type RecordRemoved struct {
	Baseline      Record     `json:"baseline" yaml:"baseline"`
	BaselineIndex int        `json:"baseline_index" yaml:"baseline_index"`
	Memory        *RecordRef `json:"memory" yaml:"memory"`
}

// RecordModified reports a baseline record fuzzily matched to an external one.
type RecordModified struct {
	Baseline      Record     `json:"baseline" yaml:"baseline"`
	BaselineIndex int        `json:"baseline_index" yaml:"baseline_index"`
	External      Record     `json:"external" yaml:"external"`
	ExternalIndex int        `json:"external_index" yaml:"external_index"`
	Score         float64    `json:"score" yaml:"score"`
	Memory        *RecordRef `json:"memory" yaml:"memory"`
}

// GroupingChanged reports a different grouping tree. A nil side means the
// snapshot has no tree.
type GroupingChanged struct {
	Baseline *GroupNode `json:"baseline" yaml:"baseline"`
	External *GroupNode `json:"external" yaml:"external"`
}

func (MetadataChange) Kind() Kind           { return KindMetadata }
func (PreambleChange) Kind() Kind           { return KindPreamble }
func (DefinitionAdded) Kind() Kind          { return KindDefinitionAdded }
func (DefinitionRemoved) Kind() Kind        { return KindDefinitionRemoved }
func (DefinitionRenamed) Kind() Kind        { return KindDefinitionRenamed }
func (DefinitionContentChanged) Kind() Kind { return KindDefinitionContentChanged }
func (RecordAdded) Kind() Kind              { return KindRecordAdded }
func (RecordRemoved) Kind() Kind            { return KindRecordRemoved }
func (RecordModified) Kind() Kind           { return KindRecordModified }
func (GroupingChanged) Kind() Kind          { return KindGrouping }

func (MetadataChange) Section() Section           { return SectionMetadata }
func (PreambleChange) Section() Section           { return SectionPreamble }
func (DefinitionAdded) Section() Section          { return SectionStrings }
func (DefinitionRemoved) Section() Section        { return SectionStrings }
func (DefinitionRenamed) Section() Section        { return SectionStrings }
func (DefinitionContentChanged) Section() Section { return SectionStrings }
func (RecordAdded) Section() Section              { return SectionEntries }
func (RecordRemoved) Section() Section            { return SectionEntries }
func (RecordModified) Section() Section           { return SectionEntries }
func (GroupingChanged) Section() Section          { return SectionGroups }

func (MetadataChange) isChange()           {}
func (PreambleChange) isChange()           {}
func (DefinitionAdded) isChange()          {}
func (DefinitionRemoved) isChange()        {}
func (DefinitionRenamed) isChange()        {}
func (DefinitionContentChanged) isChange() {}
func (RecordAdded) isChange()              {}
func (RecordRemoved) isChange()            {}
func (RecordModified) isChange()           {}
func (GroupingChanged) isChange()          {}

// Entry is a change together with its position in the changeset.
type Entry struct {
	// ID is 1-based and follows emission order.
	ID     int
	Change Change
}

// Envelope is the serialized form of an Entry.
type Envelope struct {
	ID      int     `json:"id" yaml:"id"`
	Kind    Kind    `json:"kind" yaml:"kind"`
	Section Section `json:"section" yaml:"section"`
	Change  Change  `json:"change" yaml:"change"`
}

// Changeset is the ordered result of a scan.
type Changeset struct {
	Entries []Entry
}

func (cs *Changeset) append(changes ...Change) {
	for _, c := range changes {
		cs.Entries = append(cs.Entries, Entry{ID: len(cs.Entries) + 1, Change: c})
	}
}

// Empty reports whether no changes were found.
func (cs *Changeset) Empty() bool {
	return cs == nil || len(cs.Entries) == 0
}

// Len returns the number of changes.
func (cs *Changeset) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Entries)
}

// Get returns the entry with the given ID.
func (cs *Changeset) Get(id int) (Entry, bool) {
	if cs == nil || id < 1 || id > len(cs.Entries) {
		return Entry{}, false
	}
	return cs.Entries[id-1], true
}

// Envelopes returns the serialized form of every entry.
func (cs *Changeset) Envelopes() []Envelope {
	out := make([]Envelope, 0, cs.Len())
	if cs == nil {
		return out
	}
	for _, e := range cs.Entries {
		out = append(out, Envelope{ID: e.ID, Kind: e.Change.Kind(), Section: e.Change.Section(), Change: e.Change})
	}
	return out
}

// MarshalJSON encodes the changeset as a list of envelopes.
func (cs *Changeset) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Envelopes())
}

// Summary counts changes per kind.
type Summary struct {
	Total               int `json:"total" yaml:"total"`
	Metadata            int `json:"metadata" yaml:"metadata"`
	Preamble            int `json:"preamble" yaml:"preamble"`
	DefinitionsAdded    int `json:"definitions_added" yaml:"definitions_added"`
	DefinitionsRemoved  int `json:"definitions_removed" yaml:"definitions_removed"`
	DefinitionsRenamed  int `json:"definitions_renamed" yaml:"definitions_renamed"`
	DefinitionsModified int `json:"definitions_modified" yaml:"definitions_modified"`
	RecordsAdded        int `json:"records_added" yaml:"records_added"`
	RecordsRemoved      int `json:"records_removed" yaml:"records_removed"`
	RecordsModified     int `json:"records_modified" yaml:"records_modified"`
	Groups              int `json:"groups" yaml:"groups"`
}

// Summary returns the per-kind counts of the changeset.
func (cs *Changeset) Summary() Summary {
	var s Summary
	if cs == nil {
		return s
	}
	s.Total = len(cs.Entries)
	for _, e := range cs.Entries {
		switch e.Change.(type) {
		case MetadataChange:
			s.Metadata++
		case PreambleChange:
			s.Preamble++
		case DefinitionAdded:
			s.DefinitionsAdded++
		case DefinitionRemoved:
			s.DefinitionsRemoved++
		case DefinitionRenamed:
			s.DefinitionsRenamed++
		case DefinitionContentChanged:
			s.DefinitionsModified++
		case RecordAdded:
			s.RecordsAdded++
		case RecordRemoved:
			s.RecordsRemoved++
		case RecordModified:
			s.RecordsModified++
		case GroupingChanged:
			s.Groups++
		}
	}
	return s
}
