package ncontrol

import (
	"context"

	"github.com/opd-ai/ncontrol/internal/geom"
	"github.com/opd-ai/ncontrol/internal/term"
	"github.com/opd-ai/ncontrol/internal/view"
)

// size is the logical scene size.
func (a *App) size() geom.Size {
	return geom.Sz(float64(a.cfg.Width), float64(a.cfg.Height))
}

func (a *App) currentHost() *view.Host {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.host
}

func (a *App) runTerminal(ctx context.Context) error {
	h := term.New(a.opts.Screen, a.currentHost(), term.Options{
		Size:       a.size(),
		Background: a.cfg.Background,
		TPS:        a.cfg.TPS,
		Fonts:      a.fonts,
		Logger:     a.log,
		Hooks:      term.Hooks{OnFrame: a.onFrame, OnTouch: a.onTouch},
	})
	a.setLoop(h.Post, func(v *view.Host) { h.SetScene(v) })
	return h.Run(ctx)
}
