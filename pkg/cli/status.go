package cli

import (
	"github.com/lbltool/lbltool/pkg/logo"
)

type statusCmd struct {
}

func (status *statusCmd) Run(app *App) error {
	return app.Ctrl.Run(logo.Request{})
}
