package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/pixelsculptor/internal/acquire"
	"github.com/ivlev/pixelsculptor/internal/output"
)

func newListenCmd() *cobra.Command {
	var (
		targetPath string
		broker     string
		topic      string
		timeout    time.Duration
		chunked    bool
		keepSource string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Wait for a source image on an MQTT topic, then transform it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if targetPath != "" {
				cfg.Target = targetPath
			}
			if flags.Changed("broker") {
				cfg.MQTT.Broker = broker
			}
			if flags.Changed("topic") {
				cfg.MQTT.Topic = topic
			}
			if flags.Changed("timeout") {
				cfg.MQTT.Timeout = timeout
			}
			if flags.Changed("chunked") {
				cfg.MQTT.Chunked = chunked
			}

			target, err := loadTarget()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			l := acquire.NewListener(cfg.MQTT, nil)
			if err := l.Start(ctx); err != nil {
				return err
			}
			defer l.Close()

			fmt.Printf("[*] Waiting up to %s for an image on %s\n", cfg.MQTT.Timeout, cfg.MQTT.Topic)
			got, err := l.Wait(ctx, cfg.MQTT.Timeout)
			if err != nil {
				return err
			}
			l.Close()

			if keepSource != "" {
				if err := output.Save(got.Image, keepSource); err != nil {
					return err
				}
				fmt.Printf("[*] Source saved: %s\n", keepSource)
			}
			return runSingle(ctx, "mqtt:"+got.Topic, got.Image, target)
		},
	}

	cmd.Flags().StringVar(&targetPath, "target", "", "target image or PDF (first page)")
	cmd.Flags().StringVar(&broker, "broker", "", "MQTT broker URL, e.g. tcp://host:1883")
	cmd.Flags().StringVar(&topic, "topic", "", "topic carrying the source image")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for the image")
	cmd.Flags().BoolVar(&chunked, "chunked", false, "reassemble JSON payloads split over several messages")
	cmd.Flags().StringVar(&keepSource, "save-source", "", "also save the received source image here")
	return cmd
}
