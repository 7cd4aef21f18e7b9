package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/controller"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/screen"
)

func main() {
	app := &cli.App{
		Name:  "joytests",
		Usage: "print the state of each gamepad as it changes",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "device",
				EnvVars: []string{"JOYSTICK_DEVICE"},
				Value:   cli.NewStringSlice("/dev/input/js0"),
				Usage:   "gamepad devices, in pad order",
			},
		},
		Action: func(c *cli.Context) error {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger := l.Sugar()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// Nothing to show notices on; the log is enough.
			var pads [2]gamepad.Gamepad
			for ev := range controller.ReadGamepads(ctx, c.StringSlice("device"), screen.New(), clock.New(), logger) {
				if ev.Pad < 1 || ev.Pad > len(pads) {
					continue
				}
				pads[ev.Pad-1].Apply(ev.Event)
				fmt.Printf("%d %-20s %s\n", ev.Pad, ev.Event, pads[ev.Pad-1])
			}
			return nil
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
