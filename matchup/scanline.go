package matchup

import "slices"

// ScanlineGroup is the set of matchup records acquired on one scanline.
// It is the unit of correlated error injection: one error draw per group
// for the scanline-correlated variables, shared by every member.
type ScanlineGroup struct {
	// Index is the scanline index shared by the member records.
	Index int64
	// Records holds the member record offsets in dataset order.
	Records []int
	// SpaceCountSigma is the scanline-level random uncertainty of the
	// space-view count for this scanline.
	SpaceCountSigma float64
	// ICTCountSigma is the scanline-level random uncertainty of the
	// internal-target count for this scanline.
	ICTCountSigma float64
}

// Len returns the number of member records.
func (g *ScanlineGroup) Len() int {
	return len(g.Records)
}

// ScanlineGroups is the scanline partition of a dataset, ordered by
// ascending scanline index, with a record-to-group lookup.
type ScanlineGroups struct {
	Groups []ScanlineGroup

	// byRecord maps each record offset to its group offset in Groups.
	byRecord []int
}

// NumGroups returns the number of scanline groups.
func (s *ScanlineGroups) NumGroups() int {
	return len(s.Groups)
}

// GroupOf returns the group offset for a record offset.
func (s *ScanlineGroups) GroupOf(record int) int {
	return s.byRecord[record]
}

// ScanlineGroups partitions the dataset's records by scanline index.
// Groups are ordered by ascending index; scanline-level sigmas are taken
// from the first member record of each group (Validate guarantees all
// members agree).
func (d *Dataset) ScanlineGroups() *ScanlineGroups {
	n := d.NumRecords()

	indices := make([]int64, 0, n)
	members := make(map[int64][]int, n)
	for i, idx := range d.Scanline {
		if _, seen := members[idx]; !seen {
			indices = append(indices, idx)
		}
		members[idx] = append(members[idx], i)
	}
	slices.Sort(indices)

	s := &ScanlineGroups{
		Groups:   make([]ScanlineGroup, len(indices)),
		byRecord: make([]int, n),
	}
	for gi, idx := range indices {
		recs := members[idx]
		lead := recs[0]
		s.Groups[gi] = ScanlineGroup{
			Index:           idx,
			Records:         recs,
			SpaceCountSigma: d.Random.SpaceCount[lead],
			ICTCountSigma:   d.Random.ICTCount[lead],
		}
		for _, r := range recs {
			s.byRecord[r] = gi
		}
	}

	return s
}
