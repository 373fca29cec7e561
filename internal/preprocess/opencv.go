//go:build gocv

package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	register(opencvBackend{})
}

// opencvBackend runs the chain through OpenCV. Requires the OpenCV shared
// libraries at build and run time.
type opencvBackend struct{}

func (opencvBackend) Name() string { return BackendOpenCV }

func (opencvBackend) Apply(src, dst string, opts Options) error {
	img := gocv.IMRead(src, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", ErrUnreadableImage, src)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	if opts.BlurSigma > 0 {
		gocv.GaussianBlur(gray, &blurred, image.Pt(0, 0), opts.BlurSigma, opts.BlurSigma, gocv.BorderDefault)
	} else {
		gray.CopyTo(&blurred)
	}

	clahe := gocv.NewCLAHEWithParams(opts.ClipLimit, image.Pt(opts.TileGrid, opts.TileGrid))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(blurred, &enhanced)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	k := max(opts.CloseKernel, 1)
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, kernel)

	if !gocv.IMWrite(dst, closed) {
		return fmt.Errorf("write %s failed", dst)
	}
	return nil
}
