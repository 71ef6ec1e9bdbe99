package cli

import (
	"github.com/lbltool/lbltool/pkg/logo"
)

type disableCmd struct {
}

func (disable *disableCmd) Run(app *App) error {
	return app.Ctrl.Run(logo.Request{Disable: true})
}
