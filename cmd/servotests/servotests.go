package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/config"
	"github.com/angelatrigg/FTC6302-Skystone/pkg/pca9685"
)

const usage = `Commands:
    <name> <position>       # Move a configured servo or ESC
    s <n> <position>        # Configure port for servo
    p <n> <pwm-duty-cycle>  # Configure port for PWM

<name>            Device name from the config, e.g. servo_dumper
<n>               Port number 0-15
<position>        Servo position 0.0-1.0; 0.5=centre
<pwm-duty-cycle>  Raw PWM duty cycle 0.0-1.0; 0=fully off, 1.0=fully on
`

func main() {
	app := &cli.App{
		Name:  "servotests",
		Usage: "move servos by hand from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultPath,
				Usage: "Load configuration from `FILE`",
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
	ports := map[string]int{}
	for _, d := range cfg.Devices {
		switch d.Kind {
		case config.KindMotor, config.KindServo, config.KindCRServo:
			ports[d.Name] = d.Port
		}
	}

	pwmController, err := pca9685.New(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open PCA9685: %w", err)
	}
	defer pwmController.Close()
	if err := pwmController.Configure(); err != nil {
		return fmt.Errorf("failed to configure PCA9685: %w", err)
	}

	fmt.Print(usage + "\n")
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		pwm := false
		switch cmd {
		case "s", "p":
			if len(args) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 || n >= pca9685.NumPorts {
				fmt.Println("Expected 0 <= n < 16, not", args[0])
				continue
			}
			ports["#"] = n
			pwm = cmd == "p"
			cmd, args = "#", args[1:]
		}
		port, ok := ports[cmd]
		if !ok || len(args) < 1 {
			fmt.Println("Unknown device or missing position:", cmd)
			continue
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Println("Expected float, not", args[0])
			continue
		}
		if pwm {
			fmt.Printf("Setting PWM %d to %f\n", port, v)
			err = pwmController.SetPWM(port, v)
		} else {
			fmt.Printf("Setting servo %d to %f\n", port, v)
			err = pwmController.SetServo(port, v)
		}
		if err != nil {
			return fmt.Errorf("failed to write to PCA9685: %w", err)
		}
	}
}
