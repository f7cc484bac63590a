package crosstab

import (
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// FrameParams tunes the FRAME sparse-block search
type FrameParams struct {
	// DenseThreshold is the non-empty cell count at which a row is dense
	DenseThreshold int
	// MinBlockRows is the fewest sparse rows that make a block
	MinBlockRows int
	// MaxBlankWithinBlock is how many blank rows a block may contain
	MaxBlankWithinBlock int
}

// DefaultFrameParams returns the usual FRAME layout parameters
func DefaultFrameParams() FrameParams {
	return FrameParams{DenseThreshold: 3, MinBlockRows: 3, MaxBlankWithinBlock: 1}
}

type block struct {
	start, end int // inclusive rows
	sparse     int
}

// FindFrameInelCount locates the 6-month-repeat block that trails the dense
// sampling frame and counts the patient IDs in its column B. The block is
// looked for right after the last dense row first, then anywhere in the
// sheet. No qualifying block yields 0.
func FindFrameInelCount(frame *workbook.Sheet, params FrameParams) int {
	n := frame.MaxRow()
	if n == 0 {
		return 0
	}

	counts := make([]int, n+1)
	lastDense := 0
	for r := 1; r <= n; r++ {
		counts[r] = frame.NonEmptyCount(r)
		if counts[r] >= params.DenseThreshold {
			lastDense = r
		}
	}

	found, ok := trailingBlock(counts, lastDense, params)
	if !ok {
		found, ok = firstBlock(counts, params)
	}
	if !ok {
		return 0
	}

	ids := 0
	for r := found.start; r <= found.end; r++ {
		if frame.Value(r, 2) != "" {
			ids++
		}
	}
	return ids
}

func trailingBlock(counts []int, lastDense int, params FrameParams) (block, bool) {
	start := lastDense + 1
	for start < len(counts) && counts[start] == 0 {
		start++
	}
	if start >= len(counts) {
		return block{}, false
	}
	b := sparseRun(counts, start, params)
	return b, b.sparse >= params.MinBlockRows
}

func firstBlock(counts []int, params FrameParams) (block, bool) {
	for r := 1; r < len(counts); r++ {
		if counts[r] == 0 || counts[r] >= params.DenseThreshold {
			continue
		}
		if b := sparseRun(counts, r, params); b.sparse >= params.MinBlockRows {
			return b, true
		}
	}
	return block{}, false
}

// sparseRun extends a run of sparse rows from start until a dense row or
// one blank row too many. Trailing blanks are not part of the run.
func sparseRun(counts []int, start int, params FrameParams) block {
	b := block{start: start, end: start, sparse: 1}
	blanks := 0
	for r := start + 1; r < len(counts); r++ {
		switch {
		case counts[r] == 0:
			blanks++
			if blanks > params.MaxBlankWithinBlock {
				return b
			}
		case counts[r] < params.DenseThreshold:
			b.end = r
			b.sparse++
		default:
			return b
		}
	}
	return b
}
