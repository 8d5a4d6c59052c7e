//go:build !noebiten

package ncontrol

import (
	"context"

	"github.com/opd-ai/ncontrol/internal/assets"
	"github.com/opd-ai/ncontrol/internal/render"
	"github.com/opd-ai/ncontrol/internal/view"
)

func (a *App) runWindow(ctx context.Context) error {
	fonts := render.NewFontManager()
	if err := assets.RegisterFonts(ctx, a.fontFiles(), fonts); err != nil {
		return err
	}
	c := render.NewCanvas(render.NewTextRenderer(fonts), render.NewImageCache())
	game := render.NewGame(render.Config{
		Width:       a.cfg.Width,
		Height:      a.cfg.Height,
		Title:       a.cfg.Title,
		Background:  a.cfg.Background,
		Transparent: a.cfg.Transparent,
		TPS:         a.cfg.TPS,
		MultiTouch:  a.cfg.MultiTouch,
	}, a.currentHost(), c, a.log)
	game.SetContext(ctx)
	game.SetHooks(render.Hooks{OnFrame: a.onFrame, OnTouch: a.onTouch})
	game.SetErrorHandler(nil)
	a.setLoop(game.Post, func(v *view.Host) { game.SetScene(v) })
	return game.Run()
}
