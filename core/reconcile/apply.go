package reconcile

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// ApplyOptions controls which changes are applied to the memory snapshot.
type ApplyOptions struct {
	// Accept lists the change IDs to apply. Empty means every change.
	Accept []int
	// Confirmed must be true for anything to be applied.
	Confirmed bool
	// DryRun reports what would be applied without applying it.
	DryRun bool
}

// ApplyResult is the outcome of ApplyChanges.
type ApplyResult struct {
	// Snapshot is the updated memory snapshot. When nothing was applied it is
	// an unmodified copy of the input.
	Snapshot *Snapshot
	// Planned lists the IDs of changes that have a valid target, in changeset order.
	Planned []int
	// Applied lists the IDs of applied changes. It equals Planned unless the
	// run was unconfirmed or a dry run, in which case it is empty.
	Applied []int
	// Skipped lists the IDs of accepted changes that had no memory target or
	// whose target was already taken by an earlier change.
	Skipped []int
}

// ApplyChanges applies accepted changes to a copy of memory. Inputs are never
// modified. Nothing is applied unless opts.Confirmed is set and opts.DryRun is not.
func ApplyChanges(memory *Snapshot, cs *Changeset, opts ApplyOptions) (*ApplyResult, error) {
	if memory == nil {
		memory = &Snapshot{Source: SourceMemory}
	}

	entries, err := selectEntries(cs, opts.Accept)
	if err != nil {
		return nil, err
	}

	a := &applier{
		snap:        memory.Clone(),
		usedRecords: make(claims, len(memory.Records)),
		usedDefs:    make(claims, len(memory.Definitions)),
		dropRecords: make([]bool, len(memory.Records)),
		dropDefs:    make([]bool, len(memory.Definitions)),
	}
	result := &ApplyResult{Snapshot: a.snap}

	for _, e := range entries {
		if !a.applicable(e.Change) {
			result.Skipped = append(result.Skipped, e.ID)
			continue
		}
		result.Planned = append(result.Planned, e.ID)
		if !opts.Confirmed || opts.DryRun {
			continue
		}
		a.apply(e.Change)
		result.Applied = append(result.Applied, e.ID)
	}

	a.compact()
	return result, nil
}

func selectEntries(cs *Changeset, accept []int) ([]Entry, error) {
	if cs == nil {
		return nil, nil
	}
	if len(accept) == 0 {
		return cs.Entries, nil
	}

	ids := slices.Clone(accept)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := cs.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown change id %d", id)
		}
		out = append(out, e)
	}
	return out, nil
}

type applier struct {
	snap *Snapshot

	usedRecords claims
	usedDefs    claims
	dropRecords []bool
	dropDefs    []bool
}

// applicable checks the memory target of c and claims it. Changes that only
// add content or replace a singleton always apply.
func (a *applier) applicable(c Change) bool {
	switch ch := c.(type) {
	case RecordRemoved:
		return a.claimRecord(ch.Memory)
	case RecordModified:
		return a.claimRecord(ch.Memory)
	case DefinitionRemoved:
		return a.claimDefinition(ch.Memory)
	case DefinitionRenamed:
		return a.claimDefinition(ch.Memory)
	case DefinitionContentChanged:
		return a.claimDefinition(ch.Memory)
	}
	return true
}

func (a *applier) claimRecord(ref *RecordRef) bool {
	if ref == nil || ref.Index < 0 || ref.Index >= len(a.usedRecords) {
		return false
	}
	return a.usedRecords.claim(ref.Index) == nil
}

func (a *applier) claimDefinition(ref *DefinitionRef) bool {
	if ref == nil || ref.Index < 0 || ref.Index >= len(a.usedDefs) {
		return false
	}
	return a.usedDefs.claim(ref.Index) == nil
}

func (a *applier) apply(c Change) {
	switch ch := c.(type) {
	case MetadataChange:
		a.snap.Metadata = Metadata{Values: maps.Clone(ch.External.Values), Groups: ch.External.Groups.Clone()}
	case PreambleChange:
		a.snap.Preamble = clonePreamble(ch.External)
	case DefinitionAdded:
		a.snap.Definitions = append(a.snap.Definitions, Definition{
			ID:      uuid.NewString(),
			Name:    ch.External.Name,
			Content: ch.External.Content,
		})
	case DefinitionRemoved:
		a.dropDefs[ch.Memory.Index] = true
	case DefinitionRenamed:
		a.snap.Definitions[ch.Memory.Index].Name = ch.External.Name
	case DefinitionContentChanged:
		a.snap.Definitions[ch.Memory.Index].Content = ch.External.Content
	case RecordAdded:
		a.snap.Records = append(a.snap.Records, ch.External.Clone())
	case RecordRemoved:
		a.dropRecords[ch.Memory.Index] = true
	case RecordModified:
		a.snap.Records[ch.Memory.Index] = ch.External.Clone()
	case GroupingChanged:
		a.snap.Metadata.Groups = ch.External.Clone()
	}
}

// compact drops removed entities. Appended entities sit past the original
// length and are always kept.
func (a *applier) compact() {
	records := a.snap.Records[:0]
	for i, r := range a.snap.Records {
		if i < len(a.dropRecords) && a.dropRecords[i] {
			continue
		}
		records = append(records, r)
	}
	a.snap.Records = records

	defs := a.snap.Definitions[:0]
	for i, d := range a.snap.Definitions {
		if i < len(a.dropDefs) && a.dropDefs[i] {
			continue
		}
		defs = append(defs, d)
	}
	a.snap.Definitions = defs
}
