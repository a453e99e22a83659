package colorize

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/san-kum/verletsim/internal/particle"
	"github.com/san-kum/verletsim/internal/solver"
)

const (
	KernelSize  = 7
	KernelSigma = 10.0
)

// Kernel returns a normalised size×size Gaussian kernel. size should be odd.
func Kernel(size int, sigma float64) [][]float64 {
	k := make([][]float64, size)
	center := float64(size-1) / 2
	sum := 0.0
	for y := range k {
		k[y] = make([]float64, size)
		for x := range k[y] {
			dx, dy := float64(x)-center, float64(y)-center
			k[y][x] = math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)) / (2 * math.Pi * sigma * sigma)
			sum += k[y][x]
		}
	}
	for y := range k {
		for x := range k[y] {
			k[y][x] /= sum
		}
	}
	return k
}

func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImage, path, err)
	}
	return img, nil
}

// FromImage samples the image at path under every particle. radius is the
// container radius; the container square is mapped mirrored onto the image.
func FromImage(path string, ps []particle.Particle, radius float64) ([]color.RGBA, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return Sample(img, ps, radius), nil
}

// Sample blurs img with a Gaussian kernel at each particle's position.
// Kernel taps outside the image are skipped.
func Sample(img image.Image, ps []particle.Particle, radius float64) []color.RGBA {
	kernel := Kernel(KernelSize, KernelSigma)
	half := KernelSize / 2
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	out := make([]color.RGBA, len(ps))
	for i := range ps {
		pos := ps[i].Position()
		xr := 1 - (pos.X/radius+1)/2
		yr := 1 - (pos.Y/radius+1)/2
		px := int(xr * float64(w-1))
		py := int(yr * float64(h-1))

		var rs, gs, bs, ws float64
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				sx, sy := px+ox, py+oy
				if sx < 0 || sx >= w || sy < 0 || sy >= h {
					continue
				}
				wgt := kernel[oy+half][ox+half]
				c := color.RGBAModel.Convert(img.At(b.Min.X+sx, b.Min.Y+sy)).(color.RGBA)
				rs += float64(c.R) * wgt
				gs += float64(c.G) * wgt
				bs += float64(c.B) * wgt
				ws += wgt
			}
		}
		if ws == 0 {
			out[i] = particle.DefaultColor
			continue
		}
		out[i] = color.RGBA{R: channel(rs / ws), G: channel(gs / ws), B: channel(bs / ws), A: 255}
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// Apply tints every particle in s from the image at path. On error s is
// not modified.
func Apply(s *solver.Solver, path string) error {
	colors, err := FromImage(path, s.Particles(), s.Options().ContainerRadius)
	if err != nil {
		return err
	}
	return s.SetColors(colors)
}
