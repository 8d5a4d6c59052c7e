//go:build noebiten

package ncontrol

import "context"

func (a *App) runWindow(context.Context) error {
	return ErrBackendNotEnabled
}
