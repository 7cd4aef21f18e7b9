package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/screen"
)

// Each line typed becomes the mode name; a line starting with "!" becomes a
// warning instead.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l, err := zap.NewDevelopment()
	if err != nil {
		fmt.Println(err)
		return
	}

	device := "/dev/fb1"
	if len(os.Args) > 1 {
		device = os.Args[1]
	}
	s := screen.New()
	s.SetLines([]string{"left : 0.00", "right : 0.00"})
	go screen.LoopUpdatingScreen(ctx, s, device, clock.New(), l.Sugar())

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "!") {
			s.SetNotice(screen.LevelWarning, strings.TrimPrefix(line, "!"))
			continue
		}
		s.ClearNotice()
		s.SetMode(line)
	}
}
