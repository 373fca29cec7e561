package preprocess

import (
	"image"
	"math"
)

const levels = 256

// clahe applies contrast limited adaptive histogram equalisation. The image is
// split into grid x grid tiles; each tile gets a clipped, equalised lookup
// table and pixels are mapped by bilinear interpolation between the four
// nearest tile centres.
func clahe(src *image.Gray, clipLimit float64, grid int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if grid < 1 {
		grid = 1
	}

	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid
	tilesX := (w + tileW - 1) / tileW
	tilesY := (h + tileH - 1) / tileH

	luts := make([][levels]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			r := image.Rect(tx*tileW, ty*tileH, min((tx+1)*tileW, w), min((ty+1)*tileH, h))
			luts[ty*tilesX+tx] = tileLUT(src, r, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		y1, y2, ya := tileCoord(y, tileH, tilesY)
		for x := 0; x < w; x++ {
			x1, x2, xa := tileCoord(x, tileW, tilesX)
			v := src.Pix[y*src.Stride+x]

			top := (1-xa)*float64(luts[y1*tilesX+x1][v]) + xa*float64(luts[y1*tilesX+x2][v])
			bottom := (1-xa)*float64(luts[y2*tilesX+x1][v]) + xa*float64(luts[y2*tilesX+x2][v])
			out.Pix[y*out.Stride+x] = clampUint8((1-ya)*top + ya*bottom)
		}
	}
	return out
}

// tileCoord returns the two neighbouring tile indexes for pixel position p and
// the interpolation weight of the second one.
func tileCoord(p, tileSize, tiles int) (int, int, float64) {
	f := (float64(p)+0.5)/float64(tileSize) - 0.5
	i1 := int(math.Floor(f))
	a := f - float64(i1)
	i2 := i1 + 1
	if i1 < 0 {
		i1 = 0
	}
	if i2 > tiles-1 {
		i2 = tiles - 1
	}
	if i1 > tiles-1 {
		i1 = tiles - 1
	}
	return i1, i2, a
}

func tileLUT(src *image.Gray, r image.Rectangle, clipLimit float64) [levels]uint8 {
	var hist [levels]int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := src.Pix[y*src.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[row[x]]++
		}
	}
	area := r.Dx() * r.Dy()

	if clipLimit > 0 {
		limit := max(int(clipLimit*float64(area)/levels), 1)
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := excess / levels
		residual := excess - batch*levels
		for i := range hist {
			hist[i] += batch
		}
		if residual > 0 {
			step := max(levels/residual, 1)
			for i := 0; i < levels && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [levels]uint8
	scale := float64(levels-1) / float64(area)
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = clampUint8(float64(sum) * scale)
	}
	return lut
}

// otsuThreshold returns the level that maximises between-class variance.
// Ties keep the lowest level.
func otsuThreshold(src *image.Gray) uint8 {
	var hist [levels]int
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			hist[row[x]]++
		}
	}

	total := float64(w * h)
	sum := 0.0
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB, wB, best float64
		threshold      int
	)
	for t, n := range hist {
		wB += float64(n)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * n)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = t
		}
	}
	return uint8(threshold)
}

// binarize maps pixels above t to white and the rest to black.
func binarize(src *image.Gray, t uint8) *image.Gray {
	out := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		if v > t {
			out.Pix[i] = 255
		}
	}
	return out
}

// closeGray performs a morphological closing (dilation then erosion) with a
// k x k square structuring element. Neighbours outside the image are ignored.
func closeGray(src *image.Gray, k int) *image.Gray {
	if k <= 1 {
		return src
	}
	return morph(morph(src, k, true), k, false)
}

func morph(src *image.Gray, k int, dilate bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	lo, hi := -k/2, k-1-k/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := uint8(255)
			if dilate {
				acc = 0
			}
			for dy := lo; dy <= hi; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := lo; dx <= hi; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					v := src.Pix[yy*src.Stride+xx]
					if dilate && v > acc || !dilate && v < acc {
						acc = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = acc
		}
	}
	return out
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
