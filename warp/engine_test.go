package warp

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/lensfix/lensfix/chart"
	"github.com/lensfix/lensfix/transform"
)

// source image where every pixel is distinct, so any resampling mistake shows.
func makeTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(1 + x*16),
				G: uint8(1 + y*16),
				B: uint8(1 + (x+y)*8),
				A: 255,
			})
		}
	}
	return img
}

func TestProcessIdentityAtZeroStrength(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	src := makeTestImage(4, 4)

	out, err := engine.Process(context.Background(), src, 0.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds(), test.ShouldResemble, src.Bounds())
	test.That(t, out.Pix, test.ShouldResemble, src.Pix)
}

func TestProcessDeterminism(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	src := makeTestImage(33, 21)

	first, err := engine.Process(context.Background(), src, 1.3)
	test.That(t, err, test.ShouldBeNil)
	second, err := engine.Process(context.Background(), src, 1.3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Pix, test.ShouldResemble, second.Pix)
}

func TestProcessDimensionPreservation(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	for _, size := range []image.Point{{1, 1}, {5, 3}, {64, 48}, {17, 91}} {
		out, err := engine.Process(context.Background(), makeTestImage(size.X, size.Y), 1.0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.Bounds().Dx(), test.ShouldEqual, size.X)
		test.That(t, out.Bounds().Dy(), test.ShouldEqual, size.Y)
	}
}

func TestProcessInvalidInput(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))

	_, err := engine.Process(context.Background(), nil, 1.0)
	test.That(t, err, test.ShouldBeError, ErrInvalidImage)

	_, err = engine.Process(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)), 1.0)
	test.That(t, err, test.ShouldBeError, ErrInvalidImage)
}

func TestProcessStrengthClamped(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	src := makeTestImage(16, 16)

	over, err := engine.Process(context.Background(), src, 7.5)
	test.That(t, err, test.ShouldBeNil)
	max, err := engine.Process(context.Background(), src, transform.MaxStrength)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, over.Pix, test.ShouldResemble, max.Pix)
}

func TestGenerateMappingCornerDisplacement(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	model := &transform.PinholeCameraModel{
		PinholeCameraIntrinsics: transform.NewIntrinsicsFromSize(4, 4),
		Distortion:              transform.DistortionFromStrength(2.0),
	}
	field, err := NewDisplacementField(4, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, engine.generateMapping(context.Background(), model, 2.0, field), test.ShouldBeNil)

	// the field must hold exactly what the model computes for the corner
	want := model.SourceUV(0, 0, 2.0)
	u, v := field.At(0, 0)
	test.That(t, u, test.ShouldAlmostEqual, want.X, 1e-6)
	test.That(t, v, test.ShouldAlmostEqual, want.Y, 1e-6)

	// and the corner (largest r²) must be measurably displaced from identity
	test.That(t, u, test.ShouldNotAlmostEqual, 0.0, 1e-3)
}

func TestGenerateMappingSignAsymmetry(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	intrinsics := transform.NewIntrinsicsFromSize(4, 4)

	fields := make([]*DisplacementField, 2)
	for i, s := range []float64{2.0, -2.0} {
		model := &transform.PinholeCameraModel{
			PinholeCameraIntrinsics: intrinsics,
			Distortion:              transform.DistortionFromStrength(s),
		}
		field, err := NewDisplacementField(4, 4)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, engine.generateMapping(context.Background(), model, transform.Balance(s), field), test.ShouldBeNil)
		fields[i] = field
	}
	uPos, _ := fields[0].At(0, 0)
	uNeg, _ := fields[1].At(0, 0)
	test.That(t, uPos, test.ShouldNotAlmostEqual, uNeg, 1e-6)
}

func TestBoundaryFill(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	src := makeTestImage(8, 8)
	field, err := NewDisplacementField(8, 8)
	test.That(t, err, test.ShouldBeNil)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			field.set(x, y, 0.5, 0.5)
		}
	}
	// force a few entries out of range on each axis
	field.set(0, 0, -0.1, 0.5)
	field.set(1, 0, 1.1, 0.5)
	field.set(2, 0, 0.5, -0.1)
	field.set(3, 0, 0.5, 1.1)

	out := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	test.That(t, engine.applyMapping(context.Background(), src, field, out), test.ShouldBeNil)

	for x := 0; x < 4; x++ {
		test.That(t, out.NRGBAAt(x, 0), test.ShouldResemble, color.NRGBA{})
	}
	// an in-range entry is sampled from the source, never filled
	test.That(t, out.NRGBAAt(4, 0).A, test.ShouldEqual, uint8(255))
}

func TestFillRatioMonotonicInStrength(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	src := chart.Grid(64, 64, 8)

	countTransparent := func(img *image.NRGBA) int {
		n := 0
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if img.NRGBAAt(x, y).A == 0 {
					n++
				}
			}
		}
		return n
	}

	prev := -1
	for _, s := range []float64{0, 0.5, 1.0, 1.5, 2.0} {
		out, err := engine.Process(context.Background(), src, s)
		test.That(t, err, test.ShouldBeNil)
		n := countTransparent(out)
		test.That(t, n, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = n
	}
	// at zero strength nothing is filled
	out, err := engine.Process(context.Background(), src, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, countTransparent(out), test.ShouldEqual, 0)
}

func TestReducedFidelityIdentityAtZeroStrength(t *testing.T) {
	engine := NewEngineWithConfig(EngineConfig{ReducedFidelity: true}, golog.NewTestLogger(t))
	src := makeTestImage(6, 4)

	out, err := engine.Process(context.Background(), src, 0.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Pix, test.ShouldResemble, src.Pix)
}

func TestBilinearIdentityAtZeroStrength(t *testing.T) {
	engine := NewEngineWithConfig(EngineConfig{Sampling: SamplingBilinear}, golog.NewTestLogger(t))
	src := makeTestImage(4, 4)

	out, err := engine.Process(context.Background(), src, 0.0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Pix, test.ShouldResemble, src.Pix)
}

func TestTileSizeNotObservable(t *testing.T) {
	src := makeTestImage(31, 17)
	var prev *image.NRGBA
	for _, tile := range []int{1, 7, 16, 64} {
		engine := NewEngineWithConfig(EngineConfig{TileSize: tile}, golog.NewTestLogger(t))
		out, err := engine.Process(context.Background(), src, 1.7)
		test.That(t, err, test.ShouldBeNil)
		if prev != nil {
			test.That(t, out.Pix, test.ShouldResemble, prev.Pix)
		}
		prev = out
	}
}

func TestProcessCanceledContext(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Process(ctx, makeTestImage(64, 64), 1.0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProcessTimingUsesEngineClock(t *testing.T) {
	logger, observed := golog.NewObservedTestLogger(t)
	engine := NewEngine(logger)
	engine.clk = clock.NewMock()

	_, err := engine.Process(context.Background(), makeTestImage(8, 8), 1.0)
	test.That(t, err, test.ShouldBeNil)

	// stage timing comes from the engine clock, not the wall clock: the mock
	// never advances, so the logged duration is exactly zero
	entries := observed.FilterMessageSnippet("corrected image").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["took"], test.ShouldEqual, time.Duration(0))
}

func TestDefaultEngineShared(t *testing.T) {
	test.That(t, Default(), test.ShouldEqual, Default())
}

func TestProcessConvertsAnyColorModel(t *testing.T) {
	engine := NewEngine(golog.NewTestLogger(t))
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			gray.SetGray(x, y, color.Gray{Y: uint8(x * y * 4)})
		}
	}
	out, err := engine.Process(context.Background(), gray, 0.0)
	test.That(t, err, test.ShouldBeNil)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := gray.GrayAt(x, y).Y
			test.That(t, out.NRGBAAt(x, y), test.ShouldResemble, color.NRGBA{R: want, G: want, B: want, A: 255})
		}
	}
}
