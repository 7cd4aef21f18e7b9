package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/auto"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/controller"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/driveop"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/gamepad"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware/pi"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/hardware/sim"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/opmode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/pausemode"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/screen"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/sound"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/telemetry"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/vision"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/visionop"
)

const telemetryLogInterval = time.Second

func main() {
	app := &cli.App{
		Name:  "controller",
		Usage: "drive the FTC6302 robot from two gamepads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "sim",
				Usage: "use simulated hardware",
			},
			&cli.StringFlag{
				Name:    "joystick",
				EnvVars: []string{"JOYSTICK_DEVICE"},
				Usage:   "gamepad 1 device",
			},
			&cli.StringFlag{
				Name:    "joystick2",
				EnvVars: []string{"JOYSTICK2_DEVICE"},
				Usage:   "gamepad 2 device",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	for i, flag := range []string{"joystick", "joystick2"} {
		if dev := c.String(flag); dev != "" {
			for len(cfg.Joysticks) <= i {
				cfg.Joysticks = append(cfg.Joysticks, "")
			}
			cfg.Joysticks[i] = dev
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Infow("---- FTC6302 ----", "config", cfg.String(), "sim", c.Bool("sim"))
	if err := config.WriteInUse(cfg, c.String("config")); err != nil {
		logger.Warnw("Failed to write in-use config", "error", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registerSignalHandlers(cancel, logger)

	clk := clock.New()
	hw, shutdown, err := newHardwareMap(ctx, cfg, c.Bool("sim"), clk, logger)
	if err != nil {
		return errors.Wrap(err, "initialising hardware")
	}
	defer func() {
		logger.Info("Zeroing motors for shut down")
		if err := shutdown(); err != nil {
			logger.Warnw("Errors while shutting down hardware", "error", err)
		}
	}()

	scr := screen.New()
	go screen.LoopUpdatingScreen(ctx, scr, cfg.Screen, clk, logger.Named("screen"))

	player := sound.NewPlayer(logger)
	go player.Run(ctx)
	player.Play(filepath.Join(cfg.SoundsDir, "start.wav"))

	tel := telemetry.New(telemetry.NewLogSink(logger.Named("telemetry"), clk, telemetryLogInterval), scr)
	pads := &gamepad.Pads{}
	deps := opmode.Deps{
		HardwareMap: hw,
		Telemetry:   tel,
		Config:      cfg,
		Clock:       clk,
		Logger:      logger,
		Gamepads:    pads,
	}
	var modes []controller.Mode
	for _, reg := range opmode.Enabled(registrations(cfg), cfg.ShowDisabled) {
		modes = append(modes, opmode.NewRunner(reg, deps))
	}

	events := controller.ReadGamepads(ctx, cfg.Joysticks, scr, clk, logger.Named("gamepad"))
	err = controller.New(modes, pads, hw, scr, player, clk, logger).Run(ctx, events)
	cancel()
	return err
}

func registrations(cfg config.Config) []opmode.Registration {
	regs := []opmode.Registration{
		pausemode.Registration(),
		driveop.Registration(cfg),
	}
	regs = append(regs, auto.Registrations(cfg)...)
	return append(regs, visionop.Registration(cfg))
}

func newHardwareMap(ctx context.Context, cfg config.Config, simulate bool, clk clock.Clock, logger *zap.SugaredLogger) (*hardware.Map, func() error, error) {
	if !simulate {
		return pi.NewMap(ctx, cfg, clk, logger.Named("hardware"))
	}
	hw, _, err := sim.NewMap(cfg.Devices, logger.Named("sim"))
	if err != nil {
		return nil, nil, err
	}
	for _, d := range cfg.Devices {
		if d.Kind == config.KindCamera {
			hw.Put(d.Name, &vision.Fake{})
		}
	}
	return hw, hw.Close, nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log_level %q", level)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = "console"
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func registerSignalHandlers(cancelFunc context.CancelFunc, logger *zap.SugaredLogger) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		logger.Infow("Signal", "signal", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
