package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/ai"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultProximityThreshold is the pixel distance under which two people are
// reported as too close. It ignores depth and resolution.
const DefaultProximityThreshold = 50.0

// TargetSource provides the registered target, if any.
type TargetSource interface {
	Current() (*models.TargetProfile, bool)
}

// EvidenceSaver persists a snapshot and returns a fetchable reference.
type EvidenceSaver interface {
	Save(frame *models.Frame, ec models.EvidenceContext) (string, error)
}

// Painter draws annotations onto a copy of a frame.
type Painter interface {
	Paint(frame *models.Frame, marks []models.Annotation) (*models.Frame, error)
}

type Options struct {
	Classes            *ai.ClassMap
	ConfidenceFloor    float64
	IoUFloor           float64
	ProximityThreshold float64
}

// Result is the outcome of processing one frame.
type Result struct {
	Frame      *models.Frame
	Alerts     []models.Alert
	Detections []models.Detection
}

// Orchestrator turns frames into annotated frames and alerts.
type Orchestrator struct {
	detector ai.Detector
	embedder ai.Embedder
	targets  TargetSource
	evidence EvidenceSaver
	painter  Painter
	opts     Options
	classes  []int
	logger   *logger.Logger
}

func New(detector ai.Detector, embedder ai.Embedder, targets TargetSource, evidence EvidenceSaver, painter Painter, opts Options, log *logger.Logger) *Orchestrator {
	if opts.Classes == nil {
		opts.Classes = ai.NewClassMap(detector.ClassNames(), []string{"person"}, []string{"knife"})
	}
	if opts.ProximityThreshold <= 0 {
		opts.ProximityThreshold = DefaultProximityThreshold
	}
	return &Orchestrator{
		detector: detector,
		embedder: embedder,
		targets:  targets,
		evidence: evidence,
		painter:  painter,
		opts:     opts,
		classes:  opts.Classes.OfInterest(),
		logger:   log,
	}
}

type personCenter struct {
	track int
	x, y  float64
}

// weaponEvent is a weapon alert waiting for its evidence snapshot.
type weaponEvent struct {
	alert int
	det   models.Detection
}

// Process runs detection, weapon and target checks and proximity analysis on
// frame. It never fails: inference problems yield an unannotated frame or a
// partial alert list. The input frame is not modified.
func (o *Orchestrator) Process(ctx context.Context, frame *models.Frame) Result {
	res := Result{Frame: frame}

	dets, err := o.detector.DetectAndTrack(ctx, frame, o.classes, o.opts.ConfidenceFloor, o.opts.IoUFloor)
	if err != nil {
		o.logger.Warning("Camera %d: detection failed on frame %d: %v", frame.Camera, frame.Seq, err)
		return res
	}
	res.Detections = dets

	var (
		marks   []models.Annotation
		weapons []weaponEvent
		people  []personCenter
	)

	// weapons first, they never take part in person logic
	for _, d := range dets {
		if o.opts.Classes.Role(d.ClassID) != models.RoleWeapon {
			continue
		}
		subtype := o.className(d)
		res.Alerts = append(res.Alerts, o.newAlert(frame, models.AlertWeapon, func(a *models.Alert) {
			a.Message = fmt.Sprintf("WEAPON DETECTED! (%s) Conf: %.2f", titleCase(subtype), d.Confidence)
			a.Confidence = d.Confidence
			a.Subtype = subtype
			a.TrackID = trackRef(d)
		}))
		weapons = append(weapons, weaponEvent{alert: len(res.Alerts) - 1, det: d})
		marks = append(marks, weaponMarks(d, subtype)...)
	}

	profile, hasTarget := o.targets.Current()
	for _, d := range dets {
		if o.opts.Classes.Role(d.ClassID) != models.RolePerson {
			continue
		}

		matched := false
		if hasTarget {
			if sim, ok := o.similarity(ctx, frame, d, profile); ok && sim > profile.Threshold {
				matched = true
				res.Alerts = append(res.Alerts, o.newAlert(frame, models.AlertTarget, func(a *models.Alert) {
					a.Message = fmt.Sprintf("Target Detected! ID: %d (Sim: %.2f)", d.TrackID, sim)
					a.Confidence = sim
					a.TrackID = trackRef(d)
				}))
			}
		}

		cx := float64(d.Box.Min.X+d.Box.Max.X) / 2
		cy := float64(d.Box.Min.Y+d.Box.Max.Y) / 2
		people = append(people, personCenter{track: d.TrackID, x: cx, y: cy})
		marks = append(marks, personMarks(d, matched)...)
	}

	proximity := false
	for i := 0; i < len(people); i++ {
		for j := i + 1; j < len(people); j++ {
			a, b := people[i], people[j]
			dist := math.Hypot(a.x-b.x, a.y-b.y)
			if dist >= o.opts.ProximityThreshold {
				continue
			}
			proximity = true
			res.Alerts = append(res.Alerts, o.newAlert(frame, models.AlertProximity, func(al *models.Alert) {
				al.Message = fmt.Sprintf("Proximity Alert: ID %d and %d (Dist: %.1f)", a.track, b.track, dist)
				al.Distance = dist
				al.TrackIDs = []int{a.track, b.track}
			}))
		}
	}
	if proximity {
		marks = append(marks, proximityBanner())
	}

	res.Frame = o.paint(frame, marks)

	for _, w := range weapons {
		alert := &res.Alerts[w.alert]
		ref, err := o.evidence.Save(res.Frame, models.EvidenceContext{
			Camera:     frame.Camera,
			TrackID:    w.det.TrackID,
			Kind:       models.AlertWeapon,
			Subtype:    alert.Subtype,
			Confidence: w.det.Confidence,
			At:         alert.Timestamp,
		})
		if err != nil {
			o.logger.Error("Camera %d: evidence for %s not saved: %v", frame.Camera, alert.Subtype, err)
			continue
		}
		alert.Evidence = ref
	}

	return res
}

// similarity embeds the person crop and compares it with the target. ok is
// false when the crop is empty or the embedder failed.
func (o *Orchestrator) similarity(ctx context.Context, frame *models.Frame, d models.Detection, profile *models.TargetProfile) (float64, bool) {
	crop := frame.Crop(d.Box)
	if crop.Empty() {
		return 0, false
	}
	embedding, err := o.embedder.Embed(ctx, crop)
	if err != nil {
		o.logger.Warning("Camera %d: embedding track %d failed: %v", frame.Camera, d.TrackID, err)
		return 0, false
	}
	return ai.CosineSimilarity(embedding, profile.Embedding), true
}

func (o *Orchestrator) paint(frame *models.Frame, marks []models.Annotation) *models.Frame {
	if len(marks) == 0 {
		return frame
	}
	out, err := o.painter.Paint(frame, marks)
	if err != nil {
		o.logger.Warning("Camera %d: annotating frame %d failed: %v", frame.Camera, frame.Seq, err)
		return frame
	}
	return out
}

func (o *Orchestrator) className(d models.Detection) string {
	if d.Class != "" {
		return d.Class
	}
	return o.opts.Classes.Name(d.ClassID)
}

func (o *Orchestrator) newAlert(frame *models.Frame, kind models.AlertKind, fill func(*models.Alert)) models.Alert {
	a := models.Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Camera:    frame.Camera,
		Timestamp: time.Now(),
	}
	fill(&a)
	return a
}

func trackRef(d models.Detection) *int {
	id := d.TrackID
	return &id
}

// titleCase capitalizes each word of a class name. A Caser keeps state, so
// one is made per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
