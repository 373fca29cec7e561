// Package preprocess improves scanned images for OCR with a fixed filter chain:
// grayscale, light Gaussian smoothing, CLAHE contrast enhancement, Otsu
// binarisation and a morphological closing pass.
//
// Two backends implement the chain:
//   - imaging: pure Go, always available.
//   - opencv: gocv, compiled in only with the "gocv" build tag:
//
//	go build -tags gocv
//
// Preprocessing never fails. When the selected backend is not compiled in, or
// the input cannot be read, or the output cannot be written, Process logs a
// warning and returns the input path unchanged.
package preprocess

import (
	"errors"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"playground/internal/logger"
)

// Backend names.
const (
	BackendImaging = "imaging"
	BackendOpenCV  = "opencv"
)

// ErrUnreadableImage is returned by backends when the input cannot be decoded.
var ErrUnreadableImage = errors.New("image could not be read")

// Options tunes the filter chain.
type Options struct {
	// BlurSigma is the Gaussian smoothing sigma; 0 disables smoothing.
	BlurSigma float64

	// ClipLimit is the CLAHE contrast limit.
	ClipLimit float64

	// TileGrid is the number of CLAHE tiles per axis.
	TileGrid int

	// CloseKernel is the side of the square closing kernel; 1 leaves the image unchanged.
	CloseKernel int
}

// DefaultOptions returns the chain settings used by the OCR tools.
func DefaultOptions() Options {
	return Options{
		BlurSigma:   0.5,
		ClipLimit:   3.0,
		TileGrid:    8,
		CloseKernel: 1,
	}
}

// Backend applies the filter chain from src to dst.
type Backend interface {
	Name() string
	Apply(src, dst string, opts Options) error
}

var backends = map[string]Backend{}

func register(b Backend) {
	backends[b.Name()] = b
}

// Available lists the backends compiled into this binary.
func Available() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preprocessor runs the filter chain with one backend.
type Preprocessor struct {
	backendName string
	backend     Backend
	opts        Options
	log         zerolog.Logger
}

// New returns a Preprocessor for the named backend. An unknown or
// not-compiled-in backend yields a Preprocessor whose Process is a no-op.
func New(backendName string, opts Options) *Preprocessor {
	return &Preprocessor{
		backendName: backendName,
		backend:     backends[backendName],
		opts:        opts,
		log:         logger.WithComponent("preprocess"),
	}
}

// Process writes the preprocessed image to outputPath, or to a new temp file
// named *_processed.png when outputPath is empty, and returns that path.
// On any failure it returns imagePath.
func (p *Preprocessor) Process(imagePath, outputPath string) string {
	if p.backend == nil {
		p.log.Warn().
			Str("backend", p.backendName).
			Strs("available", Available()).
			Msg("Preprocessing backend not available, using original image")
		return imagePath
	}

	tempCreated := false
	if outputPath == "" {
		f, err := os.CreateTemp("", "*_processed.png")
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to create temp file, using original image")
			return imagePath
		}
		outputPath = f.Name()
		_ = f.Close()
		tempCreated = true
	}

	p.log.Info().
		Str("backend", p.backend.Name()).
		Str("file", imagePath).
		Msg("Preprocessing image")

	if err := p.backend.Apply(imagePath, outputPath, p.opts); err != nil {
		p.log.Warn().
			Err(err).
			Str("file", imagePath).
			Msg("Preprocessing failed, using original image")
		if tempCreated {
			_ = os.Remove(outputPath)
		}
		return imagePath
	}

	p.log.Info().Str("output", outputPath).Msg("Preprocessing complete")
	return outputPath
}
