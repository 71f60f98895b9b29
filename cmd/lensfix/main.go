// Package main is the lensfix CLI: correct lens distortion in still images
// from the command line.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	// extra decode support for inputs imaging does not register itself.
	_ "golang.org/x/image/webp"

	"github.com/lensfix/lensfix/chart"
	"github.com/lensfix/lensfix/warp"
)

const (
	flagDebug    = "debug"
	flagStrength = "strength"
	flagOutput   = "output"
	flagBilinear = "bilinear"
	flagReduced  = "reduced-fidelity"
	flagParallel = "parallel"
	flagWidth    = "width"
	flagHeight   = "height"
	flagSpacing  = "spacing"
	flagBoard    = "checkerboard"
)

func main() {
	var logger golog.Logger

	app := &cli.App{
		Name:  "lensfix",
		Usage: "correct optical lens distortion in still images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			cfg := golog.NewDevelopmentLoggerConfig()
			if c.Bool(flagDebug) {
				cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			} else {
				cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = l.Sugar().Named("lensfix")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "correct",
				Usage:     "correct one or more images and write the results",
				ArgsUsage: "<image> [<image> ...]",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:    flagStrength,
						Aliases: []string{"s"},
						Value:   0.5,
						Usage:   "distortion strength in [-2, 2]; the sign selects barrel versus pincushion",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "output file (single input) or directory (multiple inputs)",
					},
					&cli.BoolFlag{
						Name:  flagBilinear,
						Usage: "resample with bilinear interpolation instead of nearest neighbor",
					},
					&cli.BoolFlag{
						Name:  flagReduced,
						Usage: "use the cheaper single-pass mapping (less accurate on non-square images)",
					},
					&cli.IntFlag{
						Name:  flagParallel,
						Value: 4,
						Usage: "max images corrected at once",
					},
				},
				Action: func(c *cli.Context) error {
					return runCorrect(c, logger)
				},
			},
			{
				Name:  "chart",
				Usage: "render a synthetic calibration chart",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagOutput,
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "output image file",
					},
					&cli.IntFlag{Name: flagWidth, Value: 1024},
					&cli.IntFlag{Name: flagHeight, Value: 768},
					&cli.IntFlag{Name: flagSpacing, Value: chart.DefaultSpacing},
					&cli.BoolFlag{
						Name:  flagBoard,
						Usage: "render a checkerboard instead of a line grid",
					},
				},
				Action: runChart,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCorrect(c *cli.Context, logger golog.Logger) error {
	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		return errors.New("no input images given")
	}
	output := c.String(flagOutput)
	if len(inputs) > 1 {
		if output == "" {
			return errors.New("an output directory is required for multiple inputs")
		}
		if err := os.MkdirAll(output, 0o750); err != nil {
			return errors.Wrap(err, "cannot create output directory")
		}
	}

	cfg := warp.EngineConfig{ReducedFidelity: c.Bool(flagReduced)}
	if c.Bool(flagBilinear) {
		cfg.Sampling = warp.SamplingBilinear
	}
	engine := warp.NewEngineWithConfig(cfg, logger)
	strength := c.Float64(flagStrength)

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(c.Int(flagParallel))
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			img, err := imaging.Open(input)
			if err != nil {
				return errors.Wrapf(err, "cannot open %q", input)
			}
			corrected, err := engine.Process(ctx, img, strength)
			if err != nil {
				return errors.Wrapf(err, "cannot correct %q", input)
			}
			out := output
			if len(inputs) > 1 {
				out = filepath.Join(output, filepath.Base(input))
			} else if out == "" {
				ext := filepath.Ext(input)
				out = input[:len(input)-len(ext)] + "_corrected" + ext
			}
			if err := imaging.Save(corrected, out); err != nil {
				return errors.Wrapf(err, "cannot save %q", out)
			}
			logger.Infow("corrected", "input", input, "output", out, "strength", strength)
			return nil
		})
	}
	return g.Wait()
}

func runChart(c *cli.Context) error {
	width, height := c.Int(flagWidth), c.Int(flagHeight)
	var img image.Image
	if c.Bool(flagBoard) {
		img = chart.Checkerboard(width, height, c.Int(flagSpacing))
	} else {
		img = chart.Grid(width, height, c.Int(flagSpacing))
	}
	return imaging.Save(img, c.String(flagOutput))
}
