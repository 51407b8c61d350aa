// Command gradedemo runs the colour grading stage on a stereo image pair.
//
// The input image (PNG, BMP or TIFF; a generated test chart when omitted)
// becomes the left eye of a two-layer array texture. The right eye is the
// same image with a small horizontal parallax shift. Each eye is graded
// with the settings file and written back as PNG.
//
//	gradedemo -settings grade.toml -input photo.png -output graded
//	gradedemo -settings grade.yaml -watch   # re-render on every file save
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/gogpu/colorgrade"
	"github.com/gogpu/colorgrade/gpu"
	"github.com/gogpu/colorgrade/gpucore"
	"github.com/gogpu/colorgrade/settings"
)

// parallax is the right eye shift as a fraction of the width.
const parallax = 0.02

var eyeNames = [2]string{"left", "right"}

func main() {
	var (
		settingsPath = flag.String("settings", "", "settings file (.toml, .yaml)")
		input        = flag.String("input", "", "input image (.png, .bmp, .tiff); test chart when empty")
		width        = flag.Int("width", 0, "output width (0 = input width)")
		height       = flag.Int("height", 0, "output height (0 = input height)")
		output       = flag.String("output", "graded", "output file prefix")
		sampling     = flag.String("sampling", "linear", "resampling mode: linear or point")
		watch        = flag.Bool("watch", false, "re-render whenever the settings file changes")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	colorgrade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	store := settings.NewStore()
	if *settingsPath != "" {
		if err := store.LoadFile(*settingsPath); err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
	}

	mode, err := parseSampling(*sampling)
	if err != nil {
		log.Fatal(err)
	}

	src, err := loadImage(*input)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	eyes := stereoPair(src)

	dev, err := gpu.NewDevice()
	if err != nil {
		log.Fatalf("GPU not available: %v", err)
	}
	defer dev.Close()

	proc, err := colorgrade.NewProcessor(dev, store, colorgrade.WithSamplingMode(mode))
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}
	defer proc.Close()

	b := eyes[0].Bounds()
	outW, outH := *width, *height
	if outW <= 0 {
		outW = b.Dx()
	}
	if outH <= 0 {
		outH = b.Dy()
	}

	in, err := dev.CreateTexture(gpucore.TextureDesc{
		Label: "gradedemo_input", Width: uint32(b.Dx()), Height: uint32(b.Dy()), //nolint:gosec // image size fits uint32
		Layers: 2, Array: true,
	})
	if err != nil {
		log.Fatalf("Failed to create input texture: %v", err)
	}
	out, err := dev.CreateTexture(gpucore.TextureDesc{
		Label: "gradedemo_output", Width: uint32(outW), Height: uint32(outH), //nolint:gosec // flag values fit uint32
		Layers: 2, Array: true,
	})
	if err != nil {
		log.Fatalf("Failed to create output texture: %v", err)
	}
	for slice, eye := range eyes {
		if err := dev.WriteTexture(in.ID, uint32(slice), eye.Pix); err != nil { //nolint:gosec // two slices
			log.Fatalf("Failed to upload %s eye: %v", eyeNames[slice], err)
		}
	}

	r := &renderer{dev: dev, proc: proc, in: in, out: out, prefix: *output}
	r.proc.Update()
	if err := r.render(); err != nil {
		log.Fatal(err)
	}

	if !*watch {
		return
	}
	if *settingsPath == "" {
		log.Fatal("-watch requires -settings")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := r.watch(ctx, store, *settingsPath); err != nil {
		log.Fatal(err)
	}
}

type renderer struct {
	dev    *gpu.Device
	proc   *colorgrade.Processor
	in     gpucore.Texture
	out    gpucore.Texture
	prefix string
}

// render grades both slices and writes one PNG per eye.
func (r *renderer) render() error {
	before := r.proc.Stats().DispatchErrors
	for slice := uint32(0); slice < r.in.LayerCount(); slice++ {
		r.proc.Process(r.in, r.out, slice)
	}
	if n := r.proc.Stats().DispatchErrors - before; n > 0 {
		return fmt.Errorf("%d dispatches failed", n)
	}

	for slice := uint32(0); slice < r.out.LayerCount(); slice++ {
		pix, err := r.dev.ReadTexture(r.out.ID, slice)
		if err != nil {
			return fmt.Errorf("read %s eye: %w", eyeNames[slice], err)
		}
		img := &image.RGBA{
			Pix:    pix,
			Stride: int(r.out.Width) * 4,
			Rect:   image.Rect(0, 0, int(r.out.Width), int(r.out.Height)),
		}
		name := fmt.Sprintf("%s_%s.png", r.prefix, eyeNames[slice])
		if err := savePNG(name, img); err != nil {
			return err
		}
		log.Printf("Saved %s (%dx%d, mode %s)\n", name, r.out.Width, r.out.Height, r.proc.Mode())
	}
	return nil
}

// watch reloads path on change and re-renders when the update recomputed
// parameters or switched mode.
func (r *renderer) watch(ctx context.Context, store *settings.Store, path string) error {
	errc := make(chan error, 1)
	go func() { errc <- store.Watch(ctx, path) }()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	log.Printf("Watching %s, press Ctrl+C to stop\n", path)
	for {
		select {
		case <-ctx.Done():
			return <-errc
		case err := <-errc:
			return err
		case <-ticker.C:
			recomputes, mode := r.proc.Stats().Recomputes, r.proc.Mode()
			r.proc.Update()
			if r.proc.Stats().Recomputes == recomputes && r.proc.Mode() == mode {
				continue
			}
			if err := r.render(); err != nil {
				log.Printf("Render failed: %v", err)
			}
		}
	}
}

func parseSampling(s string) (gpucore.SamplingMode, error) {
	switch s {
	case "point":
		return gpucore.SamplingPoint, nil
	case "linear":
		return gpucore.SamplingLinear, nil
	default:
		return 0, fmt.Errorf("unknown sampling mode %q", s)
	}
}

func loadImage(path string) (image.Image, error) {
	if path == "" {
		return testChart(512, 256), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// stereoPair converts src to RGBA for the left eye and resamples a
// horizontally shifted crop of it for the right eye.
func stereoPair(src image.Image) [2]*image.RGBA {
	b := src.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	left := image.NewRGBA(rect)
	draw.Draw(left, rect, src, b.Min, draw.Src)

	shift := int(float64(b.Dx()) * parallax)
	crop := image.Rect(b.Min.X+shift, b.Min.Y, b.Max.X, b.Max.Y)
	right := image.NewRGBA(rect)
	draw.ApproxBiLinear.Scale(right, rect, src, crop, draw.Src, nil)

	return [2]*image.RGBA{left, right}
}

// testChart draws a hue sweep over a vertical luminance ramp with a grey
// step wedge along the bottom.
func testChart(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	wedge := h - h/8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y >= wedge {
				g := uint8(x * 10 / w * 255 / 9) //nolint:gosec // 0..255
				img.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
				continue
			}
			img.SetRGBA(x, y, hueRamp(float64(x)/float64(w), 1-float64(y)/float64(wedge)))
		}
	}
	return img
}

func hueRamp(hue, lum float64) color.RGBA {
	h := hue * 6
	c := func(offset float64) uint8 {
		v := h - offset
		for v < 0 {
			v += 6
		}
		for v >= 6 {
			v -= 6
		}
		var f float64
		switch {
		case v < 1:
			f = v
		case v < 3:
			f = 1
		case v < 4:
			f = 4 - v
		}
		return uint8(f * lum * 255) //nolint:gosec // 0..255
	}
	return color.RGBA{R: c(4), G: c(0), B: c(2), A: 255}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
