package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"

	"github.com/google/uuid"
)

// ErrEvidencePersist means an evidence image could not be written. The alert
// it belongs to is kept without a reference.
var ErrEvidencePersist = errors.New("evidence could not be persisted")

// URLPrefix is the path evidence files are served under.
const URLPrefix = "/evidence/"

const nameTimeLayout = "20060102_150405.000000000"

var namePattern = regexp.MustCompile(`^([a-z]+)_(\d{8}_\d{6}\.\d{9})_cam(\d+)_trk(-?\d+)_([0-9a-f]{8})\.jpg$`)

// Encoder turns a frame into JPEG bytes.
type Encoder func(frame *models.Frame) ([]byte, error)

// Store writes evidence snapshots to a directory.
type Store struct {
	dir      string
	encode   Encoder
	archiver *Archiver
	logger   *logger.Logger
}

// NewStore creates dir if needed. archiver may be nil.
func NewStore(dir string, encode Encoder, archiver *Archiver, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create evidence directory: %w", err)
	}
	return &Store{dir: dir, encode: encode, archiver: archiver, logger: log}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// EvidenceName builds a file name unique per event.
func EvidenceName(ec models.EvidenceContext) string {
	at := ec.At
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s_%s_cam%d_trk%d_%s.jpg",
		ec.Kind, at.Format(nameTimeLayout), ec.Camera, ec.TrackID, uuid.NewString()[:8])
}

// ParseEvidenceName recovers the event context from a file name written by
// Save. Subtype and confidence are not part of the name.
func ParseEvidenceName(name string) (models.EvidenceContext, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return models.EvidenceContext{}, fmt.Errorf("not an evidence file name: %q", name)
	}
	at, err := time.ParseInLocation(nameTimeLayout, m[2], time.Local)
	if err != nil {
		return models.EvidenceContext{}, fmt.Errorf("bad timestamp in %q: %w", name, err)
	}
	camera, _ := strconv.Atoi(m[3])
	track, _ := strconv.Atoi(m[4])
	return models.EvidenceContext{
		Kind:    models.AlertKind(m[1]),
		At:      at,
		Camera:  camera,
		TrackID: track,
	}, nil
}

// Save writes frame as JPEG and returns its reference under URLPrefix.
func (s *Store) Save(frame *models.Frame, ec models.EvidenceContext) (string, error) {
	if ec.At.IsZero() {
		ec.At = time.Now()
	}

	data, err := s.encode(frame)
	if err != nil {
		return "", fmt.Errorf("%w: encoding: %v", ErrEvidencePersist, err)
	}

	name := EvidenceName(ec)
	path := filepath.Join(s.dir, name)
	tmp := filepath.Join(s.dir, "."+name+".tmp")

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEvidencePersist, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrEvidencePersist, err)
	}

	s.logger.Info("💾 Evidence saved: %s", name)

	if s.archiver != nil {
		s.archiver.Enqueue(models.EvidenceRecord{
			Filename:   name,
			Kind:       ec.Kind,
			Subtype:    ec.Subtype,
			Camera:     ec.Camera,
			TrackID:    ec.TrackID,
			Confidence: ec.Confidence,
			Timestamp:  ec.At,
			FilePath:   path,
			FileSize:   int64(len(data)),
		})
	}

	return URLPrefix + name, nil
}
