package warp

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/lensfix/lensfix/transform"
	"github.com/lensfix/lensfix/utils"
)

// ErrInvalidImage is returned when the input image is nil or has a zero dimension.
var ErrInvalidImage = errors.New("input image is nil or has a zero dimension")

// EngineConfig tunes an Engine. The zero value gives the canonical pipeline:
// two-stage intrinsics-aware mapping with nearest-neighbor resampling and
// 16x16 tiles.
type EngineConfig struct {
	// TileSize is the dispatch granularity of both stages. Scheduling only;
	// never observable in the output.
	TileSize int
	Sampling SamplingMode
	// ReducedFidelity fuses the two stages into one pass and evaluates the
	// distortion directly on centered UV, skipping the camera-intrinsics
	// asymmetry. Less accurate for non-square images.
	ReducedFidelity bool
}

// Engine corrects lens distortion in whole images. It is immutable after
// construction and safe for concurrent use; all per-call working state
// (displacement field, output buffer) is allocated privately per call.
type Engine struct {
	cfg    EngineConfig
	clk    clock.Clock
	logger golog.Logger
}

// NewEngine returns an engine with the default configuration.
func NewEngine(logger golog.Logger) *Engine {
	return NewEngineWithConfig(EngineConfig{}, logger)
}

// NewEngineWithConfig returns an engine with the given configuration.
func NewEngineWithConfig(cfg EngineConfig, logger golog.Logger) *Engine {
	if cfg.TileSize <= 0 {
		cfg.TileSize = utils.DefaultTileSize
	}
	return &Engine{cfg: cfg, clk: clock.New(), logger: logger}
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide engine, constructed on first use and shared
// for the life of the process.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine(golog.Global())
	})
	return defaultEngine
}

// Process corrects lens distortion in src with the given strength and returns
// a new image of the same dimensions. Strength outside [-2, 2] is clamped.
// The call blocks until both stages complete; on any failure it returns no
// image, never a partial one.
func (e *Engine) Process(ctx context.Context, src image.Image, strength float64) (*image.NRGBA, error) {
	if src == nil {
		return nil, ErrInvalidImage
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidImage
	}
	if clamped := transform.ClampStrength(strength); clamped != strength {
		e.logger.Debugw("strength outside domain, clamping",
			"strength", strength, "clamped", clamped)
		strength = clamped
	}

	model := &transform.PinholeCameraModel{
		PinholeCameraIntrinsics: transform.NewIntrinsicsFromSize(width, height),
		Distortion:              transform.DistortionFromStrength(strength),
	}
	if err := model.CheckValid(); err != nil {
		return nil, err
	}
	balance := transform.Balance(strength)

	input := toNRGBA(src)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))

	start := e.clk.Now()
	if e.cfg.ReducedFidelity {
		if err := e.applyFused(ctx, model, balance, input, out); err != nil {
			return nil, errors.Wrap(err, "fused pass failed")
		}
	} else {
		field, err := NewDisplacementField(width, height)
		if err != nil {
			return nil, errors.Wrap(err, "cannot allocate displacement field")
		}
		if err := e.generateMapping(ctx, model, balance, field); err != nil {
			return nil, errors.Wrap(err, "generate mapping stage failed")
		}
		// The field is fully written and visible here; the resample stage
		// must not start any earlier.
		if err := e.applyMapping(ctx, input, field, out); err != nil {
			return nil, errors.Wrap(err, "apply mapping stage failed")
		}
	}
	e.logger.Debugw("corrected image",
		"width", width, "height", height, "strength", strength, "took", e.clk.Since(start))
	return out, nil
}

// generateMapping evaluates the distortion model at every destination pixel
// and writes the resulting source coordinate into the field.
func (e *Engine) generateMapping(
	ctx context.Context,
	model *transform.PinholeCameraModel,
	balance float64,
	field *DisplacementField,
) error {
	return utils.TileForEachPixel(ctx, image.Point{field.Width(), field.Height()}, e.cfg.TileSize,
		func(x, y int) {
			uv := model.SourceUV(float64(x), float64(y), balance)
			field.set(x, y, uv.X, uv.Y)
		})
}

// applyMapping resamples src through the field into dst. Destination pixels
// whose mapped coordinate falls outside [0,1] on either axis stay transparent
// black; in-range coordinates never do.
func (e *Engine) applyMapping(ctx context.Context, src *image.NRGBA, field *DisplacementField, dst *image.NRGBA) error {
	width, height := field.Width(), field.Height()
	sample := e.sampler()
	return utils.TileForEachPixel(ctx, image.Point{width, height}, e.cfg.TileSize,
		func(x, y int) {
			u, v := field.At(x, y)
			if u < 0 || u > 1 || v < 0 || v > 1 {
				return
			}
			p := r2.Point{X: u * float64(width), Y: (1.0 - v) * float64(height)}
			dst.SetNRGBA(x, y, sample(p, src))
		})
}

// applyFused runs the reduced-fidelity single pass: map and resample each
// pixel in one step, with no intermediate field.
func (e *Engine) applyFused(
	ctx context.Context,
	model *transform.PinholeCameraModel,
	balance float64,
	src, dst *image.NRGBA,
) error {
	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()
	sample := e.sampler()
	return utils.TileForEachPixel(ctx, image.Point{width, height}, e.cfg.TileSize,
		func(x, y int) {
			uv := model.SourceUVCentered(float64(x), float64(y), balance)
			if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
				return
			}
			p := r2.Point{X: uv.X * float64(width), Y: (1.0 - uv.Y) * float64(height)}
			dst.SetNRGBA(x, y, sample(p, src))
		})
}

func (e *Engine) sampler() func(r2.Point, *image.NRGBA) color.NRGBA {
	if e.cfg.Sampling == SamplingBilinear {
		return bilinearColor
	}
	return nearestColor
}
