package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ironsheep/plate-preprocess/internal/config"
	"github.com/ironsheep/plate-preprocess/internal/fileio"
	"github.com/ironsheep/plate-preprocess/internal/imaging"
	"github.com/ironsheep/plate-preprocess/internal/pipeline"
	"github.com/ironsheep/plate-preprocess/internal/server"
)

// pipelineFlags are shared by the commands that build a pipeline.
type pipelineFlags struct {
	stages          []string
	detector        string
	foregroundColor string
	sigma           float64
	binarizeLevel   int
	anyValue        bool
}

func (p *pipelineFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&p.stages, "stages", nil, "comma-separated filter chain, e.g. grayscale,gaussian,binarize")
	fs.StringVar(&p.detector, "detector", "", "region detector: cycle, component, contour or none")
	fs.StringVar(&p.foregroundColor, "foreground", "", "hex color treated as foreground instead of exact white")
	fs.Float64Var(&p.sigma, "sigma", 0, "Gaussian spread")
	fs.IntVar(&p.binarizeLevel, "binarize-level", 0, "luminance cut for the binarize stage (0-255)")
	fs.BoolVar(&p.anyValue, "cycle-any-value", false, "let the cycle detector report background loops too")
}

// apply copies the flags the user set onto cfg.
func (p *pipelineFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("stages") {
		cfg.Stages = p.stages
	}
	if fs.Changed("detector") {
		cfg.Detector = p.detector
	}
	if fs.Changed("foreground") {
		cfg.ForegroundColor = p.foregroundColor
	}
	if fs.Changed("sigma") {
		cfg.Filter.Sigma = p.sigma
	}
	if fs.Changed("binarize-level") {
		cfg.Filter.BinarizeLevel = p.binarizeLevel
	}
	if fs.Changed("cycle-any-value") {
		cfg.CycleAnyValue = p.anyValue
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProcessCmd(g *globalFlags) *cobra.Command {
	var (
		pf         pipelineFlags
		extensions []string
		recursive  bool
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "process <dir>",
		Short: "Filter every image in a directory into its Processed subdirectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			pf.apply(cmd.Flags(), &cfg)
			if cmd.Flags().Changed("ext") {
				cfg.Extensions = extensions
			}
			if cmd.Flags().Changed("recursive") {
				cfg.Recursive = recursive
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Overwrite = overwrite
			}

			logger, err := finishConfig(cfg)
			if err != nil {
				return err
			}
			opts, err := cfg.PipelineOptions(logger)
			if err != nil {
				return err
			}
			p, err := pipeline.New(opts)
			if err != nil {
				return err
			}

			results, err := p.ProcessDir(cmd.Context(), args[0], cfg.DirOptions())
			if err != nil {
				logger.WithError(err).Error("processing stopped")
				if results == nil {
					return err
				}
			}

			failed := lo.CountBy(results, func(r pipeline.FileResult) bool { return r.Error != "" })
			logger.WithFields(logrus.Fields{
				"processed": len(results) - failed,
				"failed":    failed,
			}).Info("done")
			if perr := printJSON(cmd, results); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(results))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	pf.register(fs)
	fs.StringSliceVar(&extensions, "ext", fileio.DefaultExtensions, "file extensions to include")
	fs.BoolVar(&recursive, "recursive", false, "also process subdirectories")
	fs.BoolVar(&overwrite, "overwrite", false, "replace existing processed files")
	return cmd
}

func newDetectCmd(g *globalFlags) *cobra.Command {
	var (
		pf        pipelineFlags
		annotate  string
		crop      string
		scale     float64
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Locate the candidate plate region in one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			pf.apply(cmd.Flags(), &cfg)
			if cfg.Detector == config.DetectorNone {
				return fmt.Errorf("%w: detect needs a detector", imaging.ErrInvalidSettings)
			}

			logger, err := finishConfig(cfg)
			if err != nil {
				return err
			}
			opts, err := cfg.PipelineOptions(logger)
			if err != nil {
				return err
			}
			p, err := pipeline.New(opts)
			if err != nil {
				return err
			}

			src, err := fileio.Decode(args[0])
			if err != nil {
				return err
			}
			res, err := p.Run(cmd.Context(), src)
			if err != nil {
				return err
			}

			if res.Region.Found {
				if annotate != "" {
					marked, err := imaging.Outline(src, res.Region.Bounds.Rect(), imaging.DefaultOutlineColor, true)
					if err != nil {
						return err
					}
					if err := fileio.Save(marked, annotate, overwrite); err != nil {
						return err
					}
				}
				if crop != "" {
					cropped, err := imaging.CropRegion(src, res.Region.Bounds.Rect(), scale)
					if err != nil {
						return err
					}
					if err := fileio.Save(cropped, crop, overwrite); err != nil {
						return err
					}
				}
			} else {
				logger.WithField("file", args[0]).Warn("no candidate region found")
			}

			return printJSON(cmd, struct {
				File    string                 `json:"file"`
				Stages  []string               `json:"stages"`
				Region  interface{}            `json:"region"`
				Timings []pipeline.StageTiming `json:"timings"`
			}{args[0], p.StageNames(), res.Region, res.Timings})
		},
	}

	fs := cmd.Flags()
	pf.register(fs)
	fs.StringVar(&annotate, "annotate", "", "write the source image with the region outlined to this path")
	fs.StringVar(&crop, "crop", "", "write the cropped region to this path")
	fs.Float64Var(&scale, "scale", 1.0, "scale factor for --crop")
	fs.BoolVar(&overwrite, "overwrite", false, "replace existing output files")
	return cmd
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var pf pipelineFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the preprocessing tools as JSON-RPC over stdin/stdout",
		Long: `serve speaks the MCP JSON-RPC protocol on stdin/stdout, one request per
line. Configure it as a stdio server in your MCP client. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			pf.apply(cmd.Flags(), &cfg)

			logger, err := finishConfig(cfg)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{
				"version":    Version,
				"build_time": BuildTime,
				"commit":     GitCommit,
			}).Info("starting server")

			return server.New(cfg, logger, Version).Run(cmd.Context())
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "plate-preprocess %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
