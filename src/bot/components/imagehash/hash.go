// Package imagehash computes 64-bit difference hashes for near-duplicate
// detection of image submissions.
package imagehash

import (
	"image"
	"image/color"
	"io"
	"math/bits"

	// Registered decoders for the attachment types we hash. webp
	// attachments are stored without a hash; stdlib has no webp decoder.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	hashWidth  = 9
	hashHeight = 8
)

// DHash computes the row-wise difference hash of img: the image is
// reduced to a 9x8 grayscale grid and each bit records whether a pixel
// is brighter than its right neighbor.
func DHash(img image.Image) uint64 {
	gray := scaleGray(img, hashWidth, hashHeight)

	var hash uint64
	for y := 0; y < hashHeight; y++ {
		for x := 0; x < hashWidth-1; x++ {
			hash <<= 1
			if gray[y][x] > gray[y][x+1] {
				hash |= 1
			}
		}
	}
	return hash
}

// DecodeAndHash decodes an image stream and hashes it. Undecodable
// formats (webp among them) return an error; callers store hash 0.
func DecodeAndHash(r io.Reader) (uint64, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, err
	}
	return DHash(img), nil
}

// Distance is the Hamming distance between two hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two hashes are within the near-duplicate
// threshold used when surfacing similar entries.
func Similar(a, b uint64) bool {
	return Distance(a, b) <= 5
}

// scaleGray reduces img to a w x h luminance grid by averaging the
// source pixels that fall into each cell.
func scaleGray(img image.Image, w, h int) [][]uint32 {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	grid := make([][]uint32, h)
	for y := range grid {
		grid[y] = make([]uint32, w)
	}
	if srcW == 0 || srcH == 0 {
		return grid
	}

	for y := 0; y < h; y++ {
		y0 := bounds.Min.Y + y*srcH/h
		y1 := bounds.Min.Y + (y+1)*srcH/h
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for x := 0; x < w; x++ {
			x0 := bounds.Min.X + x*srcW/w
			x1 := bounds.Min.X + (x+1)*srcW/w
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sum, n uint64
			for sy := y0; sy < y1; sy++ {
				for sx := x0; sx < x1; sx++ {
					g := color.GrayModel.Convert(img.At(sx, sy)).(color.Gray)
					sum += uint64(g.Y)
					n++
				}
			}
			grid[y][x] = uint32(sum / n)
		}
	}
	return grid
}
