package ai

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"gocv.io/x/gocv"

	"spatialsearch/internal/config"
	"spatialsearch/internal/dto"
	"spatialsearch/internal/logger"
	"spatialsearch/internal/service/detection"
	"spatialsearch/internal/service/imaging"
	"spatialsearch/internal/service/state"
	"spatialsearch/internal/threshold"
)

const (
	// MinScore is the highest score floor the backend applies. A lower floor is
	// used when a label threshold asks for it; see ScoreFloor.
	MinScore = 0.25
	// DefaultInputSize is the square blob side of SSD MobileNet.
	DefaultInputSize = 300
)

// valuesPerDetection is the row width of an SSD output:
// [batch_id, class_id, confidence, x1, y1, x2, y2].
const valuesPerDetection = 7

type DetectorService struct {
	net       gocv.Net
	netMutex  sync.Mutex
	labels    map[int]string
	inputSize int
	minScore  float64
	logger    *logger.Logger
}

// NewDetectorService loads the DNN network and its label map. Candidates are
// reported down to the lowest cutoff of thresholds.
func NewDetectorService(cfg *config.Config, thresholds *threshold.Table, logger *logger.Logger) (*DetectorService, error) {
	labels := DefaultLabels()
	if cfg.LabelsPath != "" {
		loaded, err := LoadLabels(cfg.LabelsPath)
		if err != nil {
			return nil, err
		}
		labels = loaded
	}

	inputSize := cfg.ModelInputSize
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}

	service := &DetectorService{
		labels:    labels,
		inputSize: inputSize,
		minScore:  ScoreFloor(thresholds),
		logger:    logger,
	}
	if err := service.initializeNet(cfg.ModelPath, cfg.ModelConfigPath); err != nil {
		return nil, err
	}
	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet(modelPath, configPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("model config file not found: %s", configPath)
		}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("🤖 Detection network initialized: %s (%d labels)", modelPath, len(s.labels))
	return nil
}

// Detect runs the network on frame and returns the candidates plus an
// annotated copy of the frame. frame itself is never modified.
func (s *DetectorService) Detect(frame *state.Frame) (detection.Result, error) {
	mat, err := imaging.FrameToMat(frame)
	if err != nil {
		return detection.Result{}, err
	}
	defer mat.Close()

	values, err := s.forward(mat)
	if err != nil {
		return detection.Result{}, err
	}

	candidates := ParseDetections(values, s.labels, s.minScore)

	if err := DrawDetections(&mat, candidates); err != nil {
		return detection.Result{Candidates: candidates}, err
	}

	capturedAt := frame.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	return detection.Result{
		Candidates: candidates,
		Annotated:  imaging.MatToFrame(mat, capturedAt),
	}, nil
}

// forward returns the flattened network output.
func (s *DetectorService) forward(mat gocv.Mat) ([]float32, error) {
	s.netMutex.Lock()
	defer s.netMutex.Unlock()

	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}

	// Parameters that fit the SSD COCO network input.
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(s.inputSize, s.inputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	if output.Total()%valuesPerDetection != 0 {
		return nil, fmt.Errorf("unexpected network output size %d", output.Total())
	}

	reshaped := output.Reshape(1, output.Total()/valuesPerDetection)
	defer reshaped.Close()

	values := make([]float32, 0, reshaped.Rows()*valuesPerDetection)
	for i := 0; i < reshaped.Rows(); i++ {
		for j := 0; j < valuesPerDetection; j++ {
			values = append(values, reshaped.GetFloatAt(i, j))
		}
	}
	return values, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.netMutex.Lock()
	defer s.netMutex.Unlock()
	return s.net.Close()
}

// ScoreFloor is the lowest score the backend reports: MinScore, or the lowest
// label cutoff when that is smaller, so every threshold stays reachable.
func ScoreFloor(thresholds *threshold.Table) float64 {
	if thresholds == nil {
		return MinScore
	}
	return math.Min(MinScore, thresholds.Min())
}

// ParseDetections turns flattened SSD rows into candidates. Rows scoring
// below minScore are skipped, boxes are clamped to [0,1] and degenerate
// boxes are dropped.
func ParseDetections(values []float32, labels map[int]string, minScore float64) []dto.DetectionCandidate {
	candidates := make([]dto.DetectionCandidate, 0)

	for i := 0; i+valuesPerDetection <= len(values); i += valuesPerDetection {
		row := values[i : i+valuesPerDetection]

		confidence := float64(row[2])
		if confidence < minScore || confidence > 1 {
			continue
		}

		box := dto.BBox{
			X1: float64(row[3]),
			Y1: float64(row[4]),
			X2: float64(row[5]),
			Y2: float64(row[6]),
		}.Clamp()
		if !box.Valid() {
			continue
		}

		candidates = append(candidates, dto.DetectionCandidate{
			Label:      getClassLabel(labels, int(row[1])),
			Confidence: confidence,
			Box:        box,
		})
	}

	return candidates
}

// DrawDetections draws a labelled rectangle for every candidate onto mat.
func DrawDetections(mat *gocv.Mat, candidates []dto.DetectionCandidate) error {
	green := color.RGBA{R: 0, G: 255, B: 0, A: 0}
	cols, rows := float64(mat.Cols()), float64(mat.Rows())

	for _, c := range candidates {
		rect := image.Rect(
			int(c.Box.X1*cols), int(c.Box.Y1*rows),
			int(c.Box.X2*cols), int(c.Box.Y2*rows),
		)
		if err := gocv.Rectangle(mat, rect, green, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s %.2f", c.Label, c.Confidence)
		y := rect.Min.Y - 5
		if y < 12 {
			y = rect.Min.Y + 15
		}
		if err := gocv.PutText(mat, label, image.Pt(rect.Min.X, y), gocv.FontHersheySimplex, 0.5, green, 1); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}
	}
	return nil
}

// LoadLabels reads a label file with one class name per line; line n is
// class id n. Blank lines keep their id unassigned.
func LoadLabels(path string) (map[int]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer file.Close()

	labels := make(map[int]string)
	scanner := bufio.NewScanner(file)
	for id := 0; scanner.Scan(); id++ {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		labels[id] = titleCase(name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

// getClassLabel maps model class IDs to human-readable labels.
func getClassLabel(labels map[int]string, classID int) string {
	if label, exists := labels[classID]; exists {
		return label
	}
	return fmt.Sprintf("Unknown%d", classID)
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
