package engine

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/ai"
)

const (
	personClass = 1
	knifeClass  = 49
)

type fakeDetector struct {
	mu      sync.Mutex
	results [][]models.Detection
	errs    []error
	calls   int
}

func (d *fakeDetector) DetectAndTrack(ctx context.Context, frame *models.Frame, classes []int, confidenceFloor, iouFloor float64) ([]models.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}
	if i < len(d.results) {
		return d.results[i], nil
	}
	return nil, nil
}

func (d *fakeDetector) ClassNames() map[int]string {
	return map[int]string{personClass: "person", knifeClass: "knife"}
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, crop *models.Frame) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func (e *fakeEmbedder) Dimension() int { return len(e.vec) }

type fakeTargets struct {
	profile *models.TargetProfile
}

func (t *fakeTargets) Current() (*models.TargetProfile, bool) {
	return t.profile, t.profile != nil
}

type fakeEvidence struct {
	saved []models.EvidenceContext
	err   error
}

func (e *fakeEvidence) Save(frame *models.Frame, ec models.EvidenceContext) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.saved = append(e.saved, ec)
	return "/evidence/weapon_test.jpg", nil
}

type fakePainter struct {
	marks []models.Annotation
	err   error
}

func (p *fakePainter) Paint(frame *models.Frame, marks []models.Annotation) (*models.Frame, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.marks = append(p.marks, marks...)
	out := frame.Clone()
	out.Pix[0] = 255
	return out, nil
}

// personAt returns a 20x40 person box centered on (x, y).
func personAt(track, x, y int) models.Detection {
	return models.Detection{
		Box:        image.Rect(x-10, y-20, x+10, y+20),
		ClassID:    personClass,
		Class:      "person",
		Confidence: 0.8,
		TrackID:    track,
	}
}

func knife(track int, conf float64) models.Detection {
	return models.Detection{
		Box:        image.Rect(10, 10, 30, 60),
		ClassID:    knifeClass,
		Class:      "knife",
		Confidence: conf,
		TrackID:    track,
	}
}

type fixture struct {
	det      *fakeDetector
	emb      *fakeEmbedder
	targets  *fakeTargets
	evidence *fakeEvidence
	painter  *fakePainter
	orch     *Orchestrator
}

func newFixture(results ...[]models.Detection) *fixture {
	f := &fixture{
		det:      &fakeDetector{results: results},
		emb:      &fakeEmbedder{vec: []float32{1, 0, 0}},
		targets:  &fakeTargets{},
		evidence: &fakeEvidence{},
		painter:  &fakePainter{},
	}
	classes := ai.NewClassMap(f.det.ClassNames(), []string{"person"}, []string{"knife"})
	f.orch = New(f.det, f.emb, f.targets, f.evidence, f.painter, Options{
		Classes:            classes,
		ConfidenceFloor:    0.15,
		IoUFloor:           0.5,
		ProximityThreshold: DefaultProximityThreshold,
	}, logger.NewNop())
	return f
}

func testFrame() *models.Frame {
	f := models.NewFrame(640, 480, 3)
	f.Camera = 2
	f.Seq = 7
	return f
}

func alertsOfKind(alerts []models.Alert, kind models.AlertKind) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestProcess_Proximity(t *testing.T) {
	tests := []struct {
		name       string
		people     []models.Detection
		wantAlerts int
	}{
		{"close pair", []models.Detection{personAt(1, 100, 100), personAt(2, 120, 100)}, 1},
		{"far pair", []models.Detection{personAt(1, 100, 100), personAt(2, 300, 100)}, 0},
		{"single person", []models.Detection{personAt(1, 100, 100)}, 0},
		{"three close", []models.Detection{personAt(1, 100, 100), personAt(2, 110, 100), personAt(3, 120, 100)}, 3},
		{"untracked still counted", []models.Detection{personAt(models.NoTrack, 100, 100), personAt(models.NoTrack, 110, 100)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.people)
			res := f.orch.Process(context.Background(), testFrame())

			prox := alertsOfKind(res.Alerts, models.AlertProximity)
			if len(prox) != tt.wantAlerts {
				t.Fatalf("Expected %d proximity alerts, got %d: %+v", tt.wantAlerts, len(prox), res.Alerts)
			}
			if len(res.Alerts) != tt.wantAlerts {
				t.Errorf("Unexpected extra alerts: %+v", res.Alerts)
			}
		})
	}
}

func TestProcess_ProximityAlertContent(t *testing.T) {
	f := newFixture([]models.Detection{personAt(1, 100, 100), personAt(2, 120, 100)})
	res := f.orch.Process(context.Background(), testFrame())

	a := res.Alerts[0]
	if len(a.TrackIDs) != 2 || a.TrackIDs[0] != 1 || a.TrackIDs[1] != 2 {
		t.Errorf("Expected track ids [1 2], got %v", a.TrackIDs)
	}
	if a.Distance != 20 {
		t.Errorf("Expected distance 20, got %v", a.Distance)
	}
	if a.Message != "Proximity Alert: ID 1 and 2 (Dist: 20.0)" {
		t.Errorf("Unexpected message %q", a.Message)
	}
	if a.Camera != 2 || a.ID == "" || a.Timestamp.IsZero() {
		t.Errorf("Alert metadata not filled: %+v", a)
	}

	banner := false
	for _, m := range f.painter.marks {
		if m.Kind == models.AnnotateBanner && m.Text == "PROXIMITY ALERT" {
			banner = true
		}
	}
	if !banner {
		t.Error("Expected a proximity banner on the frame")
	}
}

func TestProcess_WeaponAlertWithEvidence(t *testing.T) {
	f := newFixture([]models.Detection{knife(4, 0.9)})
	res := f.orch.Process(context.Background(), testFrame())

	if len(res.Alerts) != 1 {
		t.Fatalf("Expected exactly one alert, got %+v", res.Alerts)
	}
	a := res.Alerts[0]
	if a.Kind != models.AlertWeapon || a.Confidence != 0.9 {
		t.Errorf("Expected weapon alert with confidence 0.9, got %+v", a)
	}
	if a.Evidence == "" {
		t.Error("Expected an evidence reference")
	}
	if a.Subtype != "knife" || a.Message != "WEAPON DETECTED! (Knife) Conf: 0.90" {
		t.Errorf("Unexpected weapon alert %q subtype %q", a.Message, a.Subtype)
	}
	if len(f.evidence.saved) != 1 || f.evidence.saved[0].Camera != 2 || f.evidence.saved[0].TrackID != 4 {
		t.Errorf("Unexpected evidence context %+v", f.evidence.saved)
	}
}

func TestProcess_WeaponMessageWithAccentedClass(t *testing.T) {
	d := knife(1, 0.9)
	d.Class = "épée"
	f := newFixture([]models.Detection{d})

	res := f.orch.Process(context.Background(), testFrame())
	if len(res.Alerts) != 1 {
		t.Fatalf("Expected one alert, got %+v", res.Alerts)
	}
	if want := "WEAPON DETECTED! (Épée) Conf: 0.90"; res.Alerts[0].Message != want {
		t.Errorf("Expected %q, got %q", want, res.Alerts[0].Message)
	}
}

func TestProcess_WeaponAlertSurvivesEvidenceFailure(t *testing.T) {
	f := newFixture([]models.Detection{knife(1, 0.9), knife(2, 0.7)})
	f.evidence.err = errors.New("disk full")

	res := f.orch.Process(context.Background(), testFrame())

	weapons := alertsOfKind(res.Alerts, models.AlertWeapon)
	if len(weapons) != 2 {
		t.Fatalf("Expected two weapon alerts, got %d", len(weapons))
	}
	for _, a := range weapons {
		if a.Evidence != "" {
			t.Errorf("Expected no evidence reference, got %q", a.Evidence)
		}
	}
}

func TestProcess_WeaponsAreExcludedFromPersonLogic(t *testing.T) {
	k := knife(1, 0.9)
	k.Box = personAt(1, 100, 100).Box
	f := newFixture([]models.Detection{k, personAt(2, 105, 100)})

	res := f.orch.Process(context.Background(), testFrame())
	if got := alertsOfKind(res.Alerts, models.AlertProximity); len(got) != 0 {
		t.Errorf("Weapon took part in proximity: %+v", got)
	}
}

func TestProcess_TargetMatch(t *testing.T) {
	tests := []struct {
		name      string
		embedding []float32
		embErr    error
		wantMatch bool
	}{
		{"same appearance", []float32{1, 0, 0}, nil, true},
		{"different appearance", []float32{0, 1, 0}, nil, false},
		{"embedder failure", nil, errors.New("oom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]models.Detection{personAt(3, 100, 100)})
			f.targets.profile = &models.TargetProfile{Embedding: []float32{1, 0, 0}, Threshold: 0.6}
			f.emb.vec, f.emb.err = tt.embedding, tt.embErr

			res := f.orch.Process(context.Background(), testFrame())
			matches := alertsOfKind(res.Alerts, models.AlertTarget)
			if tt.wantMatch != (len(matches) == 1) {
				t.Fatalf("wantMatch=%v, got alerts %+v", tt.wantMatch, res.Alerts)
			}
			if !tt.wantMatch {
				return
			}
			if matches[0].TrackID == nil || *matches[0].TrackID != 3 {
				t.Errorf("Expected track id 3, got %v", matches[0].TrackID)
			}
			if matches[0].Message != "Target Detected! ID: 3 (Sim: 1.00)" {
				t.Errorf("Unexpected message %q", matches[0].Message)
			}

			labelled := false
			for _, m := range f.painter.marks {
				if m.Kind == models.AnnotateLabel && strings.HasSuffix(m.Text, "TARGET") {
					labelled = true
				}
			}
			if !labelled {
				t.Error("Matched person should be labelled as target")
			}
		})
	}
}

func TestProcess_NoTargetSkipsEmbedding(t *testing.T) {
	f := newFixture([]models.Detection{personAt(1, 100, 100)})
	f.emb.err = errors.New("should not be called")

	res := f.orch.Process(context.Background(), testFrame())
	if len(res.Alerts) != 0 {
		t.Errorf("Expected no alerts, got %+v", res.Alerts)
	}
}

func TestProcess_DetectorFailureDoesNotStopPipeline(t *testing.T) {
	f := newFixture(nil, []models.Detection{knife(1, 0.9)})
	f.det.errs = []error{errors.New("model crashed"), nil}
	frame := testFrame()

	first := f.orch.Process(context.Background(), frame)
	if len(first.Alerts) != 0 {
		t.Errorf("Expected no alerts for failed frame, got %+v", first.Alerts)
	}
	if first.Frame != frame {
		t.Error("Failed frame should be returned unannotated")
	}

	second := f.orch.Process(context.Background(), testFrame())
	if len(second.Alerts) != 1 {
		t.Errorf("Next frame should be processed normally, got %+v", second.Alerts)
	}
}

func TestProcess_PainterFailureKeepsAlerts(t *testing.T) {
	f := newFixture([]models.Detection{knife(1, 0.9)})
	f.painter.err = errors.New("bad mat")
	frame := testFrame()

	res := f.orch.Process(context.Background(), frame)
	if res.Frame != frame {
		t.Error("Expected the unannotated frame")
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Evidence == "" {
		t.Errorf("Alerts should survive painter failure: %+v", res.Alerts)
	}
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	f := newFixture([]models.Detection{personAt(1, 100, 100)})
	frame := testFrame()

	res := f.orch.Process(context.Background(), frame)
	if frame.Pix[0] != 0 {
		t.Error("Input frame was modified")
	}
	if res.Frame == frame {
		t.Error("Expected an annotated copy")
	}
}

func TestProcess_AlertOrder(t *testing.T) {
	f := newFixture([]models.Detection{personAt(1, 100, 100), knife(9, 0.5), personAt(2, 110, 100)})
	f.targets.profile = &models.TargetProfile{Embedding: []float32{1, 0, 0}, Threshold: 0.6}

	res := f.orch.Process(context.Background(), testFrame())

	want := []models.AlertKind{models.AlertWeapon, models.AlertTarget, models.AlertTarget, models.AlertProximity}
	if len(res.Alerts) != len(want) {
		t.Fatalf("Expected %d alerts, got %+v", len(want), res.Alerts)
	}
	for i, k := range want {
		if res.Alerts[i].Kind != k {
			t.Errorf("Alert %d: expected %s, got %s", i, k, res.Alerts[i].Kind)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"knife":        "Knife",
		"baseball bat": "Baseball Bat",
		"SCISSORS":     "Scissors",
		"épée":         "Épée",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
