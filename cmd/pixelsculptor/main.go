package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/system"
)

var (
	configPath string
	blockSize  int
	threshold  float64
	workers    int
	logFile    string
	debug      bool

	cfg *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pixelsculptor",
		Short: "Rearrange a source image's colors block by block to follow a target's luminance",
		Long: `pixelsculptor permutes the pixels of a source image inside every block so
that the k-th darkest source pixel lands where the k-th darkest target pixel
is, then scores the result against the target with SSIM.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.IntVar(&blockSize, "block-size", config.DefaultBlockSize, "transport block size in pixels")
	flags.Float64Var(&threshold, "threshold", config.DefaultAcceptThreshold, "minimum SSIM to accept the result")
	flags.IntVar(&workers, "workers", 0, "parallel workers (0: one per physical core)")
	flags.StringVar(&logFile, "log-file", "", "append log lines to this file instead of stderr")
	flags.BoolVar(&debug, "debug", false, "include debug log lines")

	root.AddCommand(newRunCmd(), newListenCmd(), newScoreCmd(), newHistoryCmd())
	return root
}

// setup loads the config file and lets explicitly set flags override it.
func setup(cmd *cobra.Command, _ []string) error {
	if logFile != "" {
		if _, err := logging.OpenFile(logFile, debug); err != nil {
			return err
		}
	} else {
		logging.Setup(os.Stderr, debug)
	}

	cfg = config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("block-size") {
		cfg.BlockSize = blockSize
	}
	if flags.Changed("threshold") {
		cfg.AcceptThreshold = threshold
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if cfg.Workers == 0 {
		cfg.Workers = system.DefaultWorkers()
	}
	return cfg.Validate()
}
