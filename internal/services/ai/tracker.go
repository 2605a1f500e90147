package ai

import (
	"image"
	"sort"
	"sync"

	"surveillance/internal/models"
)

const (
	// DefaultMatchIoU is the overlap needed to continue a track.
	DefaultMatchIoU = 0.3
	// DefaultMaxMisses is how many frames a track survives unseen.
	DefaultMaxMisses = 15
)

// IoU returns the intersection over union of two boxes, 0 for no overlap.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()) + float64(b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}

// NMS keeps the most confident detection of each overlapping group within
// a class. Detections overlapping a kept one by more than iouFloor are dropped.
func NMS(dets []models.Detection, iouFloor float64) []models.Detection {
	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dets[order[i]].Confidence > dets[order[j]].Confidence
	})

	kept := make([]models.Detection, 0, len(dets))
	for _, i := range order {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == dets[i].ClassID && IoU(k.Box, dets[i].Box) > iouFloor {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, dets[i])
		}
	}
	return kept
}

type track struct {
	id      int
	classID int
	box     image.Rectangle
	misses  int
}

// Tracker assigns track ids that persist across frames of the same camera,
// matching boxes of the same class greedily by IoU.
type Tracker struct {
	MatchIoU  float64
	MaxMisses int

	mu      sync.Mutex
	nextID  int
	streams map[int][]*track
}

func NewTracker() *Tracker {
	return &Tracker{
		MatchIoU:  DefaultMatchIoU,
		MaxMisses: DefaultMaxMisses,
		streams:   make(map[int][]*track),
	}
}

// Update assigns TrackID to each detection of one camera's frame and returns
// them in input order.
func (t *Tracker) Update(camera int, dets []models.Detection) []models.Detection {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracks := t.streams[camera]

	type pair struct {
		track, det int
		iou        float64
	}
	var pairs []pair
	for ti, tr := range tracks {
		for di, d := range dets {
			if tr.classID != d.ClassID {
				continue
			}
			if iou := IoU(tr.box, d.Box); iou >= t.MatchIoU {
				pairs = append(pairs, pair{ti, di, iou})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].iou > pairs[j].iou })

	out := make([]models.Detection, len(dets))
	copy(out, dets)
	trackUsed := make([]bool, len(tracks))
	detUsed := make([]bool, len(dets))
	for _, p := range pairs {
		if trackUsed[p.track] || detUsed[p.det] {
			continue
		}
		trackUsed[p.track], detUsed[p.det] = true, true
		tr := tracks[p.track]
		tr.box = dets[p.det].Box
		tr.misses = 0
		out[p.det].TrackID = tr.id
	}

	survivors := tracks[:0]
	for i, tr := range tracks {
		if !trackUsed[i] {
			tr.misses++
			if tr.misses > t.MaxMisses {
				continue
			}
		}
		survivors = append(survivors, tr)
	}

	for di, d := range dets {
		if detUsed[di] {
			continue
		}
		t.nextID++
		survivors = append(survivors, &track{id: t.nextID, classID: d.ClassID, box: d.Box})
		out[di].TrackID = t.nextID
	}

	t.streams[camera] = survivors
	return out
}

// Reset forgets every track of camera.
func (t *Tracker) Reset(camera int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.streams, camera)
}
