package ai

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"surveillance/internal/config"
	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/vision"

	"gocv.io/x/gocv"
)

// cocoClasses are the labels of the SSD MobileNet COCO graph, keyed by the
// class id the network emits.
var cocoClasses = map[int]string{
	1: "person", 2: "bicycle", 3: "car", 4: "motorcycle", 5: "airplane",
	6: "bus", 7: "train", 8: "truck", 9: "boat", 16: "bird", 17: "cat",
	18: "dog", 27: "backpack", 31: "handbag", 33: "suitcase",
	39: "baseball bat", 44: "bottle", 48: "fork", 49: "knife", 50: "spoon",
	73: "laptop", 77: "cell phone", 87: "scissors",
}

// DNNDetector runs an SSD network through OpenCV and tracks its detections
// per camera.
type DNNDetector struct {
	mu         sync.Mutex
	net        gocv.Net
	modelPath  string
	configPath string
	tracker    *Tracker
	logger     *logger.Logger
}

// NewDNNDetector loads the detection network. Unlike the embedder a missing
// model is fatal, nothing useful can run without it.
func NewDNNDetector(cfg *config.Config, log *logger.Logger) (*DNNDetector, error) {
	d := &DNNDetector{
		modelPath:  cfg.ModelPath,
		configPath: cfg.ModelConfigPath,
		tracker:    NewTracker(),
		logger:     log,
	}
	if err := d.initializeNet(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DNNDetector) initializeNet() error {
	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}
	if _, err := os.Stat(d.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", d.configPath)
	}

	net := gocv.ReadNet(d.modelPath, d.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", d.modelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	d.net = net
	d.logger.Info("Detection network initialized successfully")
	return nil
}

func (d *DNNDetector) ClassNames() map[int]string {
	out := make(map[int]string, len(cocoClasses))
	for id, name := range cocoClasses {
		out[id] = name
	}
	return out
}

func (d *DNNDetector) DetectAndTrack(ctx context.Context, frame *models.Frame, classes []int, confidenceFloor, iouFloor float64) ([]models.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := vision.ToMat(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer mat.Close()

	wanted := make(map[int]bool, len(classes))
	for _, c := range classes {
		wanted[c] = true
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	if output.Empty() || output.Total()%7 != 0 {
		return nil, fmt.Errorf("%w: unexpected detector output of %d values", ErrInference, output.Total())
	}

	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	bounds := frame.Bounds()
	var dets []models.Detection
	for i := 0; i < rows.Rows(); i++ {
		confidence := float64(rows.GetFloatAt(i, 2))
		if confidence < confidenceFloor {
			continue
		}
		classID := int(rows.GetFloatAt(i, 1))
		if !wanted[classID] {
			continue
		}
		box := image.Rect(
			int(rows.GetFloatAt(i, 3)*float32(frame.Width)),
			int(rows.GetFloatAt(i, 4)*float32(frame.Height)),
			int(rows.GetFloatAt(i, 5)*float32(frame.Width)),
			int(rows.GetFloatAt(i, 6)*float32(frame.Height)),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}
		dets = append(dets, models.Detection{
			Box:        box,
			ClassID:    classID,
			Class:      cocoClasses[classID],
			Confidence: confidence,
			TrackID:    models.NoTrack,
		})
	}

	return d.tracker.Update(frame.Camera, NMS(dets, iouFloor)), nil
}

func (d *DNNDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
