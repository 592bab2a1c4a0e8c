package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rec builds an article record from alternating field names and values.
func rec(kv ...string) Record {
	r := Record{Type: "article", Fields: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Fields[kv[i]] = kv[i+1]
	}
	return r
}

func snapshot(src Source, records ...Record) *Snapshot {
	return &Snapshot{Source: src, Records: records}
}

func strptr(s string) *string { return &s }

// mapLoader serves snapshots from memory by location.
func mapLoader(snaps map[string]*Snapshot) Loader {
	return LoaderFunc(func(_ context.Context, location string) (*Snapshot, error) {
		snap, ok := snaps[location]
		if !ok {
			return nil, fmt.Errorf("no such file: %s", location)
		}
		return snap, nil
	})
}

// TestReconcile_Scenarios tests the reference scenarios end to end.
func TestReconcile_Scenarios(t *testing.T) {
	s := NewScanner(nil)

	t.Run("identical snapshots yield nothing", func(t *testing.T) {
		cs, err := s.Reconcile(
			snapshot(SourceMemory, rec("title", "A")),
			snapshot(SourceBaseline, rec("title", "A")),
			snapshot(SourceExternal, rec("title", "A")),
		)
		require.NoError(t, err)
		assert.True(t, cs.Empty())
	})

	t.Run("new external record is added", func(t *testing.T) {
		cs, err := s.Reconcile(
			snapshot(SourceMemory, rec("title", "A")),
			snapshot(SourceBaseline, rec("title", "A")),
			snapshot(SourceExternal, rec("title", "A"), rec("title", "B")),
		)
		require.NoError(t, err)
		require.Equal(t, 1, cs.Len())

		added, ok := cs.Entries[0].Change.(RecordAdded)
		require.True(t, ok)
		assert.Equal(t, "B", added.External.Fields["title"])
		assert.Equal(t, 1, added.ExternalIndex)
		assert.Equal(t, 1, cs.Entries[0].ID)
	})

	t.Run("missing external record is removed", func(t *testing.T) {
		cs, err := s.Reconcile(
			snapshot(SourceMemory, rec("title", "A")),
			snapshot(SourceBaseline, rec("title", "A")),
			snapshot(SourceExternal),
		)
		require.NoError(t, err)
		require.Equal(t, 1, cs.Len())

		removed, ok := cs.Entries[0].Change.(RecordRemoved)
		require.True(t, ok)
		assert.Equal(t, "A", removed.Baseline.Fields["title"])
		require.NotNil(t, removed.Memory)
		assert.Equal(t, 0, removed.Memory.Index)
	})

	t.Run("removed record without memory has no ref", func(t *testing.T) {
		cs, err := s.Reconcile(
			snapshot(SourceMemory),
			snapshot(SourceBaseline, rec("title", "A")),
			snapshot(SourceExternal),
		)
		require.NoError(t, err)
		require.Equal(t, 1, cs.Len())
		assert.Nil(t, cs.Entries[0].Change.(RecordRemoved).Memory)
	})

	t.Run("definition rename", func(t *testing.T) {
		cs, err := s.Reconcile(
			&Snapshot{Source: SourceMemory},
			&Snapshot{Source: SourceBaseline, Definitions: []Definition{{ID: "s1", Name: "x", Content: "1"}}},
			&Snapshot{Source: SourceExternal, Definitions: []Definition{{ID: "s1", Name: "y", Content: "1"}}},
		)
		require.NoError(t, err)
		require.Equal(t, 1, cs.Len())

		renamed, ok := cs.Entries[0].Change.(DefinitionRenamed)
		require.True(t, ok)
		assert.Equal(t, "x", renamed.Baseline.Name)
		assert.Equal(t, "y", renamed.External.Name)
	})

	t.Run("metadata appears externally", func(t *testing.T) {
		external := Metadata{Values: map[string]string{"saveOrder": "original"}}
		cs, err := s.Reconcile(
			&Snapshot{Source: SourceMemory, Metadata: external.Clone()},
			&Snapshot{Source: SourceBaseline},
			&Snapshot{Source: SourceExternal, Metadata: external},
		)
		require.NoError(t, err)
		require.Equal(t, 1, cs.Len())
		assert.Equal(t, KindMetadata, cs.Entries[0].Change.Kind())
	})
}

// TestReconcile_SectionOrder tests that changes are emitted section by section.
func TestReconcile_SectionOrder(t *testing.T) {
	baseline := &Snapshot{
		Records:     []Record{rec("title", "A")},
		Definitions: []Definition{{Name: "x", Content: "1"}},
		Preamble:    strptr("old"),
		Metadata: Metadata{
			Values: map[string]string{"databaseType": "bibtex"},
			Groups: &GroupNode{Kind: "AllEntriesGroup"},
		},
	}
	external := &Snapshot{
		Records:     []Record{rec("title", "A"), rec("title", "B")},
		Definitions: []Definition{{Name: "x", Content: "2"}},
		Preamble:    strptr("new"),
		Metadata: Metadata{
			Values: map[string]string{"databaseType": "biblatex"},
			Groups: &GroupNode{Kind: "AllEntriesGroup", Children: []*GroupNode{{Kind: "StaticGroup", Name: "g"}}},
		},
	}

	cs, err := NewScanner(nil).Reconcile(baseline.Clone(), baseline, external)
	require.NoError(t, err)

	var sections []Section
	for _, e := range cs.Entries {
		sections = append(sections, e.Change.Section())
	}
	assert.Equal(t, []Section{SectionMetadata, SectionPreamble, SectionStrings, SectionEntries, SectionGroups}, sections)

	s := cs.Summary()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.DefinitionsModified)
	assert.Equal(t, 1, s.RecordsAdded)
}

// TestReconcile_Idempotence tests that a snapshot reconciled against copies of
// itself yields an empty changeset.
func TestReconcile_Idempotence(t *testing.T) {
	snap := &Snapshot{
		Records: []Record{
			rec("title", "Alpha", "year", "2020", "author", "Ann Smith"),
			rec("title", "Beta", "year", "2019"),
			rec("title", "Beta", "year", "2019"),
			rec("note", "no sort keys"),
		},
		Definitions: []Definition{{Name: "acm", Content: "ACM"}, {Name: "ieee", Content: "IEEE"}},
		Preamble:    strptr(`\newcommand{\noop}[1]{}`),
		Metadata: Metadata{
			Values: map[string]string{"databaseType": "bibtex"},
			Groups: &GroupNode{Kind: "AllEntriesGroup", Children: []*GroupNode{{Kind: "StaticGroup", Name: "Reading"}}},
		},
	}

	cs, err := NewScanner(nil).Reconcile(snap.Clone(), snap.Clone(), snap.Clone())
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

// TestReconcile_Deterministic tests that repeated runs produce identical changesets.
func TestReconcile_Deterministic(t *testing.T) {
	memory, baseline, external := mixedSnapshots()
	s := NewScanner(nil)

	first, err := s.Reconcile(memory, baseline, external)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.Reconcile(memory, baseline, external)
		require.NoError(t, err)
		assert.Equal(t, first.Entries, again.Entries)
	}
}

// TestReconcile_DoesNotModifyInputs tests that reconciling leaves the snapshots untouched.
func TestReconcile_DoesNotModifyInputs(t *testing.T) {
	memory, baseline, external := mixedSnapshots()
	wantMemory, wantBaseline, wantExternal := memory.Clone(), baseline.Clone(), external.Clone()

	_, err := NewScanner(nil).Reconcile(memory, baseline, external)
	require.NoError(t, err)

	assert.Equal(t, wantMemory, memory)
	assert.Equal(t, wantBaseline, baseline)
	assert.Equal(t, wantExternal, external)
}

// TestReconcile_InvalidOracle tests that an oracle returning an impossible score fails the scan.
func TestReconcile_InvalidOracle(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), -0.5} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			s := NewScanner(nil, WithSimilarity(func(a, b Record) float64 { return v }))
			cs, err := s.Reconcile(snapshot(SourceMemory), snapshot(SourceBaseline, rec("title", "A")), snapshot(SourceExternal, rec("title", "B")))

			assert.Nil(t, cs)
			var inv *InvariantError
			assert.True(t, errors.As(err, &inv))
		})
	}
}

// TestScan_LoadsAndReconciles tests that Scan loads both snapshots and labels them.
func TestScan_LoadsAndReconciles(t *testing.T) {
	loader := mapLoader(map[string]*Snapshot{
		"baseline.bib": {Records: []Record{rec("title", "A")}},
		"library.bib":  {Records: []Record{rec("title", "A"), rec("title", "B")}},
	})

	res, err := NewScanner(loader).Scan(context.Background(), ScanRequest{
		Memory:   snapshot(SourceMemory, rec("title", "A")),
		Baseline: "baseline.bib",
		External: "library.bib",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changeset.Len())
	assert.Equal(t, SourceBaseline, res.Baseline.Source)
	assert.Equal(t, SourceExternal, res.External.Source)
	assert.Len(t, res.External.Records, 2)
}

// TestScan_NilMemory tests that a missing memory snapshot is treated as empty.
func TestScan_NilMemory(t *testing.T) {
	loader := mapLoader(map[string]*Snapshot{
		"baseline.bib": {Records: []Record{rec("title", "A")}},
		"library.bib":  {},
	})

	res, err := NewScanner(loader).Scan(context.Background(), ScanRequest{Baseline: "baseline.bib", External: "library.bib"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Changeset.Len())
	assert.Nil(t, res.Changeset.Entries[0].Change.(RecordRemoved).Memory)
}

// TestScan_LoadError tests that a load failure aborts the scan without a changeset.
func TestScan_LoadError(t *testing.T) {
	tests := []struct {
		name     string
		baseline string
		external string
		failing  string
	}{
		{name: "baseline missing", baseline: "missing.bib", external: "library.bib", failing: "missing.bib"},
		{name: "external missing", baseline: "baseline.bib", external: "missing.bib", failing: "missing.bib"},
	}

	loader := mapLoader(map[string]*Snapshot{
		"baseline.bib": {},
		"library.bib":  {},
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewScanner(loader).Scan(context.Background(), ScanRequest{Baseline: tt.baseline, External: tt.external})
			assert.Nil(t, res)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.failing, le.Location)
			assert.Contains(t, err.Error(), "no such file")
		})
	}
}

// TestWithMatchThreshold tests that the threshold option moves the fuzzy boundary.
func TestWithMatchThreshold(t *testing.T) {
	baseline := snapshot(SourceBaseline, rec("title", "A", "year", "2020"))
	external := snapshot(SourceExternal, rec("title", "A", "year", "2021"))

	// type and title agree, year differs: 2/3
	cs, err := NewScanner(nil).Reconcile(snapshot(SourceMemory), baseline, external)
	require.NoError(t, err)
	require.Equal(t, 1, cs.Len())
	assert.Equal(t, KindRecordModified, cs.Entries[0].Change.Kind())

	cs, err = NewScanner(nil, WithMatchThreshold(0.9)).Reconcile(snapshot(SourceMemory), baseline, external)
	require.NoError(t, err)
	require.Equal(t, 2, cs.Len())
	assert.Equal(t, KindRecordRemoved, cs.Entries[0].Change.Kind())
	assert.Equal(t, KindRecordAdded, cs.Entries[1].Change.Kind())
}

// TestChangeset_JSON tests that a changeset serializes as a list of envelopes.
func TestChangeset_JSON(t *testing.T) {
	cs := &Changeset{}
	cs.append(RecordAdded{External: rec("title", "B"), ExternalIndex: 3})

	data, err := cs.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"kind":"record_added","section":"entries","change":{"external":{"type":"article","fields":{"title":"B"}},"external_index":3}}]`, string(data))

	_, ok := cs.Get(2)
	assert.False(t, ok)
	e, ok := cs.Get(1)
	assert.True(t, ok)
	assert.Equal(t, KindRecordAdded, e.Change.Kind())
}

// mixedSnapshots returns a scan with one exact match, one modification, one
// removal and one addition. Memory equals the baseline.
func mixedSnapshots() (memory, baseline, external *Snapshot) {
	baseline = snapshot(SourceBaseline,
		rec("title", "Alpha", "year", "2020", "author", "Ann Smith"),
		rec("title", "Beta", "year", "2019"),
		rec("title", "Gamma", "year", "2018"),
	)
	external = snapshot(SourceExternal,
		rec("title", "Alpha", "year", "2020", "author", "Ann Smith"),
		rec("title", "Beta", "year", "2019", "note", "revised"),
		rec("title", "Delta", "year", "2021"),
	)
	memory = baseline.Clone()
	memory.Source = SourceMemory
	return memory, baseline, external
}
