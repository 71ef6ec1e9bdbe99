package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lbltool/lbltool/pkg/logo"
)

type installCmd struct {
	Image string `arg:"" name:"image" help:"Image file to use as the boot logo" type:"existingfile"`
}

func (install *installCmd) Run(app *App) error {
	return app.Ctrl.Run(logo.Request{ImagePath: install.Image})
}

// promptConfirm asks on the terminal before the first firmware write.
// Only an explicit "n" declines.
func promptConfirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) != "n"
}
