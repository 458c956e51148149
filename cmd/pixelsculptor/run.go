package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ivlev/pixelsculptor/internal/engine"
	"github.com/ivlev/pixelsculptor/internal/history"
	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/output"
	"github.com/ivlev/pixelsculptor/internal/report"
	"github.com/ivlev/pixelsculptor/internal/source"
	"github.com/ivlev/pixelsculptor/internal/system"
)

const (
	inputDir  = "input"
	outputDir = "output"
)

func newRunCmd() *cobra.Command {
	var sourcePath, targetPath, outputPath, reportPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform a source image, directory or PDF toward a target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputPath != "" {
				cfg.Output = outputPath
			}
			if reportPath != "" {
				cfg.Report = reportPath
			}
			if targetPath != "" {
				cfg.Target = targetPath
			}

			if sourcePath == "" {
				latest, err := system.FindLatestImage(inputDir)
				if err != nil {
					return errors.Wrapf(err, "no --source given and no image in %s/", inputDir)
				}
				sourcePath = latest
				fmt.Printf("[*] Selected source: %s\n", sourcePath)
			}

			target, err := loadTarget()
			if err != nil {
				return err
			}

			src, err := source.Open(sourcePath, cfg.DPI)
			if err != nil {
				return errors.Wrap(err, "opening source")
			}
			defer src.Close()

			if src.Count() == 1 {
				img, err := src.Load(0)
				if err != nil {
					return err
				}
				return runSingle(cmd.Context(), sourcePath, img, target)
			}
			return runBatch(cmd.Context(), src, target)
		},
	}

	cmd.Flags().StringVar(&sourcePath, "source", "", "source image, image directory or PDF (default: newest image in input/)")
	cmd.Flags().StringVar(&targetPath, "target", "", "target image or PDF (first page)")
	cmd.Flags().StringVar(&outputPath, "output", "", "output image path, or directory for batches")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a YAML run report here")
	return cmd
}

func loadTarget() (image.Image, error) {
	if cfg.Target == "" {
		return nil, errors.New("no target: pass --target or set target in the config")
	}
	img, err := source.LoadImage(cfg.Target, cfg.DPI)
	if err != nil {
		return nil, errors.Wrap(err, "loading target")
	}
	b := img.Bounds()
	fmt.Printf("[*] Target: %s (%dx%d)\n", cfg.Target, b.Dx(), b.Dy())
	return img, nil
}

func runSingle(ctx context.Context, sourceName string, src, target image.Image) error {
	printHeader(sourceName, 1)

	rep := report.New(sourceName, cfg.Target)
	res, err := engine.NewPipeline(cfg).Run(ctx, src, target)
	if err != nil {
		return err
	}

	outPath := cfg.Output
	if outPath == "" {
		outPath = defaultOutputName(sourceName)
	}
	if err := finish(ctx, rep, res, outPath); err != nil {
		return err
	}
	if cfg.Report != "" {
		if err := report.Write(rep, cfg.Report); err != nil {
			return err
		}
		fmt.Printf("[*] Report written: %s\n", cfg.Report)
	}
	printStats(1, res.Timings)
	return nil
}

func runBatch(ctx context.Context, src source.Source, target image.Image) error {
	count := src.Count()
	printHeader(cfg.Target, count)

	dir := cfg.Output
	if dir == "" {
		dir = filepath.Join(outputDir, "batch_"+time.Now().Format("2006-01-02_15-04-05"))
	}

	var total report.Timings
	passed := 0
	err := engine.NewPipeline(cfg).RunBatch(ctx, src, target, func(item engine.BatchItem) {
		if item.Err != nil {
			return
		}
		rep := report.New(item.Name, cfg.Target)
		if err := finish(ctx, rep, item.Result, batchOutputPath(dir, item)); err != nil {
			logging.Errorf("[!] %s: %v", item.Name, err)
			return
		}
		if item.Result.Passed {
			passed++
		}
		total.Resize += item.Result.Timings.Resize
		total.Transport += item.Result.Timings.Transport
		total.Validate += item.Result.Timings.Validate
	})
	if err != nil {
		return err
	}
	fmt.Printf("[+] %d/%d passed (threshold %.2f), results in %s\n", passed, count, cfg.AcceptThreshold, dir)
	printStats(count, total)
	return nil
}

// finish saves the transformed image, completes rep and records it in the
// history database when one is configured.
func finish(ctx context.Context, rep *report.Report, res *engine.Result, outPath string) error {
	if err := output.Save(res.Image.ToNRGBA(), outPath); err != nil {
		return err
	}

	rep.FinishedAt = time.Now().UTC()
	rep.SourceSize = res.SourceSize
	rep.TargetSize = res.TargetSize
	rep.BlockSize = cfg.BlockSize
	rep.Threshold = cfg.AcceptThreshold
	rep.Score = res.Score
	rep.Passed = res.Passed
	rep.Resized = res.Resized
	rep.Output = outPath
	rep.Timings = res.Timings

	verdict := "[+] ACCEPTED"
	if !res.Passed {
		verdict = "[-] REJECTED"
	}
	fmt.Printf("%s %s: SSIM %.4f (threshold %.2f) -> %s\n", verdict, rep.Source, res.Score, cfg.AcceptThreshold, outPath)

	if cfg.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, rep)
}

// batchOutputPath prefixes the entry index so same-named files with
// different extensions get distinct outputs.
func batchOutputPath(dir string, item engine.BatchItem) string {
	return filepath.Join(dir, fmt.Sprintf("%03d_%s.png", item.Index+1, item.Name))
}

func defaultOutputName(sourceName string) string {
	base := filepath.Base(sourceName)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	if name == "" || name == "." {
		name = "sculpted"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
}

func printHeader(name string, count int) {
	fmt.Println("--- [PIXELSCULPTOR] ---")
	fmt.Printf("[*] Source: %s | Images: %d\n", name, count)
	fmt.Printf("[*] Block: %d | Threshold: %.2f | Workers: %d | Resample: %s\n",
		cfg.BlockSize, cfg.AcceptThreshold, cfg.Workers, cfg.Resample)
	fmt.Println("-----------------------")
}

func printStats(count int, t report.Timings) {
	if !cfg.ShowStats {
		return
	}
	fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
		"Host: %s\n"+
		"Images: %d\n"+
		"Resize: %s\n"+
		"Transport: %s\n"+
		"Validate: %s\n"+
		"Total: %s\n"+
		"----------------------------\n",
		system.HostSummary(), count, t.Resize, t.Transport, t.Validate, t.Total())
}
