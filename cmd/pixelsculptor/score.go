package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/pixelsculptor/internal/raster"
	"github.com/ivlev/pixelsculptor/internal/similarity"
	"github.com/ivlev/pixelsculptor/internal/source"
)

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score A B",
		Short: "Print the SSIM of two equally sized images",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			var imgs [2]*raster.Image
			for i, path := range args {
				img, err := source.LoadImage(path, cfg.DPI)
				if err != nil {
					return err
				}
				imgs[i] = raster.FromImage(img)
			}

			v, err := similarity.NewValidator(cfg.AcceptThreshold).Validate(imgs[0], imgs[1])
			if err != nil {
				return err
			}
			fmt.Printf("%.6f\tpassed=%v\n", v.Score, v.Passed)
			return nil
		},
	}
}
