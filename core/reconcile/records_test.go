package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strict() scorer { return scorer{fn: StrictSimilarity} }

func constant(v float64) scorer {
	return scorer{fn: func(a, b Record) float64 { return v }}
}

// TestReconcileRecords_Mixed tests exact, fuzzy, removed and added records in one pass.
func TestReconcileRecords_Mixed(t *testing.T) {
	memory, baseline, external := mixedSnapshots()

	changes, err := reconcileRecords(strict(), DefaultMatchThreshold, memory.Records, baseline.Records, external.Records)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	modified, ok := changes[0].(RecordModified)
	require.True(t, ok)
	assert.Equal(t, 1, modified.BaselineIndex)
	assert.Equal(t, 1, modified.ExternalIndex)
	assert.InDelta(t, 0.75, modified.Score, 1e-9)
	require.NotNil(t, modified.Memory)
	assert.Equal(t, 1, modified.Memory.Index)

	removed, ok := changes[1].(RecordRemoved)
	require.True(t, ok)
	assert.Equal(t, 2, removed.BaselineIndex)
	require.NotNil(t, removed.Memory)
	assert.Equal(t, 2, removed.Memory.Index)

	added, ok := changes[2].(RecordAdded)
	require.True(t, ok)
	assert.Equal(t, 2, added.ExternalIndex)
	assert.Equal(t, "Delta", added.External.Fields["title"])
}

// TestReconcileRecords_ThresholdBoundary tests where fuzzy and exact matching start.
func TestReconcileRecords_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		kinds []Kind
	}{
		{name: "at threshold is removed", score: 0.4, kinds: []Kind{KindRecordRemoved, KindRecordAdded}},
		{name: "above threshold is modified", score: 0.41, kinds: []Kind{KindRecordModified}},
		{name: "exactly one is still fuzzy", score: 1.0, kinds: []Kind{KindRecordModified}},
		{name: "above one is exact", score: 1.01, kinds: nil},
		{name: "zero never matches", score: 0, kinds: []Kind{KindRecordRemoved, KindRecordAdded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := reconcileRecords(constant(tt.score), DefaultMatchThreshold, nil,
				[]Record{rec("title", "A")}, []Record{rec("title", "X")})
			require.NoError(t, err)

			var kinds []Kind
			for _, c := range changes {
				kinds = append(kinds, c.Kind())
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

// TestReconcileRecords_ExclusivityAndCoverage tests that every baseline record
// is accounted for once and no external record is used twice.
func TestReconcileRecords_ExclusivityAndCoverage(t *testing.T) {
	baseline := []Record{
		rec("title", "One", "year", "2001"),
		rec("title", "Two", "year", "2002"),
		rec("title", "Three", "year", "2003", "author", "A B"),
		rec("title", "Four", "year", "2004"),
		rec("title", "Five"),
		rec("title", "Two", "year", "2002"),
	}
	external := []Record{
		rec("title", "Two", "year", "2002"),
		rec("title", "Three", "year", "2003", "author", "A C"),
		rec("title", "Four", "year", "2040"),
		rec("title", "Six", "year", "2006"),
		rec("title", "Seven"),
		rec("title", "One", "year", "2001"),
	}

	changes, err := reconcileRecords(strict(), DefaultMatchThreshold, nil, baseline, external)
	require.NoError(t, err)

	seenExternal := map[int]int{}
	seenBaseline := map[int]int{}
	for _, c := range changes {
		switch ch := c.(type) {
		case RecordModified:
			seenExternal[ch.ExternalIndex]++
			seenBaseline[ch.BaselineIndex]++
		case RecordAdded:
			seenExternal[ch.ExternalIndex]++
		case RecordRemoved:
			seenBaseline[ch.BaselineIndex]++
		}
	}
	for idx, n := range seenExternal {
		assert.Equal(t, 1, n, "external %d", idx)
	}
	for idx, n := range seenBaseline {
		assert.Equal(t, 1, n, "baseline %d", idx)
	}

	// One and Two match exactly; Four, Three and Five are fuzzy; the duplicate
	// Two finds nothing close enough and Six is new.
	cs := &Changeset{}
	cs.append(changes...)
	summary := cs.Summary()
	assert.Equal(t, 3, summary.RecordsModified)
	assert.Equal(t, 1, summary.RecordsRemoved)
	assert.Equal(t, 1, summary.RecordsAdded)
	assert.Equal(t, len(baseline), 2+summary.RecordsModified+summary.RecordsRemoved)
	assert.Equal(t, len(external), 2+summary.RecordsModified+summary.RecordsAdded)
}

// TestReconcileRecords_DuplicateInMemorySuppressesAddition tests that an external
// record already present in memory is not reported as added.
func TestReconcileRecords_DuplicateInMemorySuppressesAddition(t *testing.T) {
	changes, err := reconcileRecords(strict(), DefaultMatchThreshold,
		[]Record{rec("title", "A"), rec("title", "B")},
		[]Record{rec("title", "A")},
		[]Record{rec("title", "A"), rec("title", "B")},
	)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

// TestReconcileRecords_FuzzyOrderFollowsBaseline tests that deferred records are
// resolved in sorted baseline order and the first best candidate wins.
func TestReconcileRecords_FuzzyOrderFollowsBaseline(t *testing.T) {
	baseline := []Record{
		rec("title", "Old", "year", "1999", "note", "x"),
		rec("title", "New", "year", "2020", "note", "x"),
	}
	external := []Record{
		rec("title", "Changed", "year", "2010", "note", "x"),
	}

	changes, err := reconcileRecords(strict(), DefaultMatchThreshold, nil, baseline, external)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	// 2020 sorts first and claims the only candidate.
	modified := changes[0].(RecordModified)
	assert.Equal(t, 1, modified.BaselineIndex)
	removed := changes[1].(RecordRemoved)
	assert.Equal(t, 0, removed.BaselineIndex)
}

// TestBestMemoryFit tests the memory lookup for fuzzy results.
func TestBestMemoryFit(t *testing.T) {
	memory := []Record{
		rec("title", "Beta", "year", "2000"),
		rec("title", "Alpha", "year", "2000", "note", "n"),
		rec("title", "Alpha", "year", "2000"),
	}
	m := &recordMatcher{scorer: strict(), memory: newRecordView(memory)}

	ref, err := m.bestMemoryFit(rec("title", "Alpha", "year", "2000"))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, 2, ref.Index)

	empty := &recordMatcher{scorer: strict(), memory: newRecordView(nil)}
	ref, err = empty.bestMemoryFit(rec("title", "Alpha"))
	require.NoError(t, err)
	assert.Nil(t, ref)
}

// TestClaims tests that a position cannot be consumed twice.
func TestClaims(t *testing.T) {
	c := make(claims, 2)
	require.NoError(t, c.claim(1))

	err := c.claim(1)
	var inv *InvariantError
	assert.ErrorAs(t, err, &inv)
}
