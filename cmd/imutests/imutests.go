package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/angle"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/bno08x"
)

func main() {
	app := &cli.App{
		Name:  "imutests",
		Usage: "print BNO08x reports and the heading relative to start-up",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Value: bno08x.DefaultSerialDevice,
				Usage: "serial port the IMU is on",
			},
		},
		Action: func(c *cli.Context) error {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			imu := bno08x.New(c.String("device"), clock.New(), l.Sugar())
			imu.Start(ctx)
			defer imu.Close()

			// Give the first report time to arrive before taking the offset.
			time.Sleep(time.Second)
			offset := angle.FromFloat(imu.Heading())
			for ctx.Err() == nil {
				heading := angle.FromFloat(imu.Heading())
				fmt.Printf("%v\nHeading: %.2f\n", imu.CurrentReport(), heading.Sub(offset).Float())
				select {
				case <-ctx.Done():
				case <-time.After(200 * time.Millisecond):
				}
			}
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
