package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

func init() {
	register(imagingBackend{})
}

// imagingBackend implements the chain with disintegration/imaging for
// decoding, grayscale, blur and encoding; the histogram and morphology steps
// work on *image.Gray.
type imagingBackend struct{}

func (imagingBackend) Name() string { return BackendImaging }

func (imagingBackend) Apply(src, dst string, opts Options) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	gray := imaging.Grayscale(img)
	if opts.BlurSigma > 0 {
		gray = imaging.Blur(gray, opts.BlurSigma)
	}

	enhanced := clahe(toGray(gray), opts.ClipLimit, opts.TileGrid)
	binary := binarize(enhanced, otsuThreshold(enhanced))
	closed := closeGray(binary, opts.CloseKernel)

	if err := imaging.Save(closed, dst); err != nil {
		return fmt.Errorf("save %s: %w", dst, err)
	}
	return nil
}

// toGray converts a grayscale NRGBA image (R == G == B) to *image.Gray.
func toGray(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = img.Pix[row+x*4]
		}
	}
	return out
}
