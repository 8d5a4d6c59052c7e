// Package ncontrol embeds NControl: a Lua-scripted scene of touchable
// views drawn through one canvas API on a desktop window, in a terminal,
// or into a PNG file.
//
// # Basic Usage
//
//	app, err := ncontrol.New("panel.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// The file sets ncontrol.config = {...} and defines views with
// ncontrol.view{...}. A separate scene file can be named with the scene
// key.
//
// # Configuration Sources
//
//   - Disk file: [New]
//   - Embedded FS: [NewFromFS]
//   - In-memory source: [NewFromSource]
//
// # Hot Reload
//
// With watch = true the scene file is watched and reloaded on change. A
// scene that fails to load leaves the previous one running; after
// repeated failures reloads pause for a while.
//
// # Observability
//
// [Metrics] counts frames, touches and reloads and can be published with
// expvar. [ErrorTracker] keeps recent errors by category. Log output goes
// to a [Logger]; [NewSlogAdapter] wraps any *slog.Logger.
package ncontrol
