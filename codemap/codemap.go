// Package codemap tracks a sequence of character-level edits to a
// source string and supports bidirectional conversion between original
// and modified positions, including positions that resolve into other
// files.
package codemap

import (
	"sort"

	"github.com/z33toolchain/z33/internal/translate"
	"github.com/z33toolchain/z33/internal/uuid"
)

var f = translate.From

// Range is a half-open character range [Start, End) into a string.
type Range struct {
	Start int
	End   int
}

// Len returns the number of characters spanned by the range.
func (r Range) Len() int { return r.End - r.Start }

// Segment is one tile of the Modified text, mapping back either
// directly (character-for-character) or indirectly to a span of
// Original text, or, when ExternalFile is set, to a span inside
// another file's CodeMap.
type Segment struct {
	Previous     Range
	Current      Range
	Direct       bool
	ExternalFile *uuid.UUID
}

// CodeMap owns the original and modified source text together with
// the ordered list of segments tiling Modified.
type CodeMap struct {
	Original string
	Modified string
	Segments []Segment
}

// New builds a CodeMap for s with a single direct segment covering all
// of s.
func New(s string) *CodeMap {
	return &CodeMap{
		Original: s,
		Modified: s,
		Segments: []Segment{
			{
				Previous: Range{0, len(s)},
				Current:  Range{0, len(s)},
				Direct:   true,
			},
		},
	}
}

// segmentIndex finds the segment containing modifiedIndex: inclusive
// lower bound, exclusive upper bound, except that an index equal to
// the very end of Modified resolves to the last segment.
func (cm *CodeMap) segmentIndex(modifiedIndex int) int {
	n := len(cm.Segments)
	if n == 0 {
		return -1
	}
	if modifiedIndex >= cm.Segments[n-1].Current.End {
		return n - 1
	}
	return sort.Search(n, func(i int) bool {
		return cm.Segments[i].Current.End > modifiedIndex
	})
}

// ConvertResult is the outcome of ConvertToOriginal.
type ConvertResult struct {
	// Kind selects which field is populated.
	Kind ConvertKind
	// One is valid when Kind == OneToOne.
	One int
	// Range is valid when Kind == OneToRange.
	Range Range
	// ExternalFile and Offset are valid when Kind == OneToFileOffset.
	ExternalFile uuid.UUID
	Offset       int
}

// ConvertKind tags the variant carried by a ConvertResult.
type ConvertKind int

const (
	OneToOne ConvertKind = iota
	OneToRange
	OneToFileOffset
)

// ConvertToOriginal maps a position in Modified back to Original (or,
// for externally-tagged segments, into another file's text).
func (cm *CodeMap) ConvertToOriginal(modifiedIndex int) (result ConvertResult, ok bool) {
	idx := cm.segmentIndex(modifiedIndex)
	if idx < 0 {
		return
	}
	seg := cm.Segments[idx]
	offsetIntoCurrent := modifiedIndex - seg.Current.Start

	if seg.ExternalFile != nil {
		result = ConvertResult{
			Kind:         OneToFileOffset,
			ExternalFile: *seg.ExternalFile,
			Offset:       seg.Previous.Start + offsetIntoCurrent,
		}
		ok = true
		return
	}

	if seg.Direct {
		result = ConvertResult{Kind: OneToOne, One: seg.Previous.Start + offsetIntoCurrent}
		ok = true
		return
	}

	result = ConvertResult{Kind: OneToRange, Range: seg.Previous}
	ok = true
	return
}

// ConvertToModified maps a position in Original forward into Modified.
// It returns ok=false if the original position was removed by an edit,
// or now lives in a different file.
func (cm *CodeMap) ConvertToModified(originalIndex int) (modifiedIndex int, ok bool) {
	for _, seg := range cm.Segments {
		if !seg.Direct || seg.ExternalFile != nil {
			continue
		}
		if originalIndex >= seg.Previous.Start && originalIndex < seg.Previous.End {
			modifiedIndex = seg.Current.Start + (originalIndex - seg.Previous.Start)
			ok = true
			return
		}
	}
	return
}

// replaceSegments rebuilds cm.Modified and the segment list after
// splicing text into [rng.Start, rng.End) of Modified, producing one
// replacement segment described by the caller. Concatenated inserts are
// placed between two segments split at the insertion point; removals
// split at both boundaries, drop the enclosed segments, and re-link.
func (cm *CodeMap) replaceSegments(rng Range, text string, replacement Segment) {
	cm.splitAt(rng.Start)
	cm.splitAt(rng.End)

	// After splitting, every segment either lies wholly inside
	// [rng.Start, rng.End), wholly before it, or wholly after it.
	startIdx := len(cm.Segments)
	endIdx := len(cm.Segments)
	for i, seg := range cm.Segments {
		if seg.Current.Start == rng.Start {
			startIdx = i
		}
		if seg.Current.Start == rng.End {
			endIdx = i
			break
		}
	}
	if rng.Start == rng.End {
		endIdx = startIdx
	}

	delta := len(text) - rng.Len()

	replacement.Current = Range{rng.Start, rng.Start + len(text)}

	newSegments := make([]Segment, 0, len(cm.Segments)-(endIdx-startIdx)+1)
	newSegments = append(newSegments, cm.Segments[:startIdx]...)
	newSegments = append(newSegments, replacement)
	for _, seg := range cm.Segments[endIdx:] {
		seg.Current.Start += delta
		seg.Current.End += delta
		newSegments = append(newSegments, seg)
	}

	cm.Modified = cm.Modified[:rng.Start] + text + cm.Modified[rng.End:]
	cm.Segments = newSegments
}

// ReplaceCharacters replaces Modified[rng] with text. The affected span
// becomes a single non-direct segment mapping back to the Original span
// that text replaced; later segments shift by len(text) - rng.Len().
func (cm *CodeMap) ReplaceCharacters(rng Range, text string) {
	orig, _ := cm.ConvertToOriginal(rng.Start)
	prevStart := rng.Start
	if orig.Kind == OneToOne {
		prevStart = orig.One
	}
	origEnd, _ := cm.ConvertToOriginal(max(rng.End-1, rng.Start))
	prevEnd := prevStart
	if origEnd.Kind == OneToOne {
		prevEnd = origEnd.One + 1
	} else if rng.Len() > 0 {
		prevEnd = prevStart + rng.Len()
	}

	cm.replaceSegments(rng, text, Segment{
		Previous: Range{prevStart, prevEnd},
		Direct:   false,
	})
}

// InsertFileContents splices text from another file into Modified[rng],
// tagging the new segment with fileUUID so translation resolves into
// that file's CodeMap instead of this one's Original.
func (cm *CodeMap) InsertFileContents(text string, fileUUID uuid.UUID, rng Range) {
	cm.InsertFileSpan(text, fileUUID, Range{0, len(text)}, rng)
}

// InsertFileSpan is InsertFileContents with an explicit source span:
// the new segment's Previous range points at source inside the file
// identified by fileUUID rather than at [0, len(text)).
func (cm *CodeMap) InsertFileSpan(text string, fileUUID uuid.UUID, source Range, rng Range) {
	id := fileUUID
	cm.replaceSegments(rng, text, Segment{
		Previous:     source,
		Direct:       false,
		ExternalFile: &id,
	})
}

// splitAt splits the direct-mapping segment containing at (if any) into
// two direct-mapping segments with proportional Previous ranges, unless
// at already falls on a segment boundary. Splitting a non-direct
// segment is a programmer error.
func (cm *CodeMap) splitAt(at int) {
	idx := cm.segmentIndex(at)
	if idx < 0 || idx >= len(cm.Segments) {
		return
	}
	seg := cm.Segments[idx]
	if seg.Current.Start == at || seg.Current.End == at {
		return // already on a boundary
	}
	if !seg.Direct {
		panic(f("codemap: cannot split a non-direct segment at %v", at))
	}

	offset := at - seg.Current.Start
	left := Segment{
		Previous: Range{seg.Previous.Start, seg.Previous.Start + offset},
		Current:  Range{seg.Current.Start, at},
		Direct:   true,
	}
	right := Segment{
		Previous: Range{seg.Previous.Start + offset, seg.Previous.End},
		Current:  Range{at, seg.Current.End},
		Direct:   true,
	}

	segments := make([]Segment, 0, len(cm.Segments)+1)
	segments = append(segments, cm.Segments[:idx]...)
	segments = append(segments, left, right)
	segments = append(segments, cm.Segments[idx+1:]...)
	cm.Segments = segments
}

// SplitSegment is the exported form of splitAt: it prepares an
// insertion point between two segments.
func (cm *CodeMap) SplitSegment(at int) {
	cm.splitAt(at)
}
