package main

import (
	"os"

	"github.com/lbltool/lbltool/pkg/cli"
)

func main() {
	os.Exit(cli.RunCommandLineTool())
}
