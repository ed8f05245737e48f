package detect

import (
	"sort"

	"redaction-worker-go/internal/models"
)

// MergeRegions folds candidate boxes into a minimal covering set: sort by
// (x, y), then greedily union each box with any existing result box whose
// intersection-over-union exceeds the threshold, repeating until the box
// settles. Zero-area boxes are discarded. The result is deterministic for a
// fixed input order, idempotent on its own output, and never larger than the
// input. Candidate padding/margins are applied by the callers before merging.
func MergeRegions(boxes []models.Rect, iouThreshold float64) []models.Rect {
	if len(boxes) == 0 {
		return nil
	}

	sorted := make([]models.Rect, 0, len(boxes))
	for _, b := range boxes {
		if b.Empty() {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	var out []models.Rect
	for _, b := range sorted {
		cur := b
		// A union can grow past other result boxes, so keep folding until
		// cur no longer overlaps anything above the threshold.
		for {
			idx := -1
			for i, r := range out {
				if r.IoU(cur) > iouThreshold {
					idx = i
					break
				}
			}
			if idx < 0 {
				break
			}
			cur = out[idx].Union(cur)
			out = append(out[:idx], out[idx+1:]...)
		}
		out = append(out, cur)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
