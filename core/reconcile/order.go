package reconcile

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// sortFields are the comparator keys, most significant first.
var sortFields = []string{"year", "author", "title"}

// SortOrder returns a stable permutation of indices into records, sorted by
// year, author and title, each descending and case-insensitive. A record that
// has a key sorts before one that lacks it. Ties keep their input order.
func SortOrder(records []Record) []int {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	cmp := comparator{fold: cases.Fold()}
	sort.SliceStable(order, func(i, j int) bool {
		return cmp.compare(records[order[i]], records[order[j]]) < 0
	})
	return order
}

// comparator owns a case folder; a Caser must not be shared across goroutines.
type comparator struct {
	fold cases.Caser
}

func (c comparator) compare(a, b Record) int {
	for _, field := range sortFields {
		if r := c.compareField(a, b, field); r != 0 {
			return r
		}
	}
	return 0
}

func (c comparator) compareField(a, b Record, field string) int {
	va, oka := a.Field(field)
	vb, okb := b.Field(field)
	switch {
	case !oka && !okb:
		return 0
	case oka && !okb:
		return -1
	case !oka && okb:
		return 1
	}

	if field == "author" {
		va, vb = authorSortKey(va), authorSortKey(vb)
	}

	if field == "year" {
		if ia, erra := strconv.Atoi(strings.TrimSpace(va)); erra == nil {
			if ib, errb := strconv.Atoi(strings.TrimSpace(vb)); errb == nil {
				return -compareInts(ia, ib)
			}
		}
	}
	return -strings.Compare(c.fold.String(va), c.fold.String(vb))
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// authorSortKey rewrites an "and"-separated author list so that every name
// starts with its last name.
func authorSortKey(authors string) string {
	names := strings.Split(authors, " and ")
	for i, name := range names {
		name = strings.TrimSpace(name)
		if strings.Contains(name, ",") {
			names[i] = name
			continue
		}
		parts := strings.Fields(name)
		if len(parts) < 2 {
			names[i] = name
			continue
		}
		last := parts[len(parts)-1]
		names[i] = last + ", " + strings.Join(parts[:len(parts)-1], " ")
	}
	return strings.Join(names, " and ")
}
