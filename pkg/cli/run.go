package cli

import (
	"errors"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lbltool/lbltool/pkg/efivars"
	"github.com/lbltool/lbltool/pkg/logo"
)

const (
	programName = "lbltool"
	programDesc = "Lenovo boot logo command-line utility"
)

type verboseFlag bool

func (v verboseFlag) BeforeApply() error {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return nil
}

type traceFlag bool

func (v traceFlag) BeforeApply() error {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	log.Logger = log.Logger.With().Caller().Logger()
	return nil
}

type rootCmd struct {
	// Global options
	ESP     string      `name:"esp" default:"/efi" help:"Path to the mounted EFI system partition" type:"path"`
	Vars    string      `name:"vars" default:"${vars_default_dir}" help:"Path to the EFI variable store" type:"path"`
	Verbose verboseFlag `help:"Enable verbose mode"`
	Trace   traceFlag   `hidden:""`
	Colors  bool        `help:"Force colors on for all console outputs (default: autodetect)"`

	// Subcommands
	Status  statusCmd  `cmd:"" default:"1" help:"Show the current boot logo state"`
	Disable disableCmd `cmd:"" help:"Disable the custom boot logo"`
	Install installCmd `cmd:"" help:"Install an image as the custom boot logo"`
}

// App is the state shared by all subcommands.
type App struct {
	Ctrl *logo.Controller
}

func initUI(forceColors bool) {
	notty := os.Getenv("TERM") == "dumb" || (!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

	// honor NO_COLOR env var as per https://no-color.org/ like the colors library we use does, too
	_, noColors := os.LookupEnv("NO_COLOR")

	cw := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    noColors && !forceColors,
		TimeFormat: "15:04:05"}

	if forceColors || (!notty && !noColors) {
		cw.NoColor = false
		cw.Out = colorable.NewColorableStdout()
		color.NoColor = false
	}

	// apply settings to global default logger
	log.Logger = log.Output(cw)
}

func RunCommandLineTool() int {
	app := &App{}

	// Parse common cli options
	var cli rootCmd
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"vars_default_dir": efivars.DefaultDir,
		},
		kong.Bind(app))

	initUI(cli.Colors)

	app.Ctrl = logo.New(logo.Config{ESPDir: cli.ESP, VarDir: cli.Vars})
	app.Ctrl.Confirm = promptConfirm

	// Run the selected subcommand
	if err := ctx.Run(app); err != nil {
		return reportError(err)
	}
	return 0
}

// reportError maps domain errors to a single user-facing message. The
// absence of the Lenovo variables is not a failure, just firmware that
// cannot do custom logos.
func reportError(err error) int {
	switch {
	case errors.Is(err, logo.ErrUnsupportedPlatform):
		log.Warn().Msg("Could not open the Lenovo logo EFI variables. Your system probably does not support changing the boot logo.")
		return 0
	case errors.Is(err, logo.ErrMalformed):
		log.Error().Msg("Could not parse the Lenovo logo EFI variables. Your system might not support changing the boot logo.")
	case errors.Is(err, logo.ErrUnsupportedFormat):
		log.Error().Msgf("%s", err)
	case errors.Is(err, logo.ErrConflict):
		log.Error().Msgf("%s", err)
	case errors.Is(err, os.ErrPermission):
		log.Error().Msg("Permission denied. Changing the boot logo must be run with elevated privileges.")
	default:
		log.Error().Err(err).Msg("Operation failed")
	}
	return 1
}
