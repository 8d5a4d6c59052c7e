package config

import (
	"fmt"
	"sync"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/paint"
	"github.com/opd-ai/ncontrol/internal/script"
)

// LuaConfigParser runs a config file in a sandboxed runtime of its own and
// reads the ncontrol.config table it leaves behind. Scene definitions in
// the same file are accepted and ignored.
type LuaConfigParser struct {
	limits script.RuntimeConfig
	mu     sync.Mutex
}

// NewLuaConfigParser returns a parser running files under the default
// script limits.
func NewLuaConfigParser() *LuaConfigParser {
	return &LuaConfigParser{limits: script.DefaultConfig()}
}

// Parse runs content and extracts the configuration. Keys that are absent
// keep their defaults.
func (p *LuaConfigParser) Parse(name string, content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := script.New(p.limits)
	defer r.Close()
	ncontrol := rt.NewTable()
	ncontrol.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	for _, fn := range []string{"view", "set_visible", "set_frame"} {
		ncontrol.Set(rt.StringValue(fn), script.NewFunction("ncontrol."+fn, ignore, 0, true))
	}
	r.SetGlobal("ncontrol", rt.TableValue(ncontrol))

	if _, err := r.ExecuteString(name, string(content)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	cfg := DefaultConfig()
	tbl, ok := ncontrol.Get(rt.StringValue("config")).TryTable()
	if !ok {
		return nil, fmt.Errorf("ncontrol.config is not a table")
	}
	if err := extractConfigTable(&cfg, tbl); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ignore stands in for scene functions while a file is read as config.
func ignore(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	return c.Next(), nil
}

func extractConfigTable(cfg *Config, table *rt.Table) error {
	if val := getTableInt(table, "width"); val != nil {
		cfg.Width = *val
	}
	if val := getTableInt(table, "height"); val != nil {
		cfg.Height = *val
	}
	if val := getTableInt(table, "tps"); val != nil {
		cfg.TPS = *val
	}
	if val := getTableString(table, "title"); val != nil {
		cfg.Title = *val
	}
	if val := getTableBool(table, "transparent"); val != nil {
		cfg.Transparent = *val
	}
	if val := getTableBool(table, "multi_touch"); val != nil {
		cfg.MultiTouch = *val
	}
	if val := getTableBool(table, "watch"); val != nil {
		cfg.Watch = *val
	}
	if val := getTableString(table, "scene"); val != nil {
		cfg.Scene = *val
	}
	if val := getTableString(table, "log_level"); val != nil {
		cfg.LogLevel = *val
	}
	if val := getTableString(table, "output"); val != nil {
		cfg.Output = *val
	}
	if val := getTableString(table, "backend"); val != nil {
		b, err := ParseBackend(*val)
		if err != nil {
			return fmt.Errorf("invalid backend: %w", err)
		}
		cfg.Backend = b
	}
	if val := getTableString(table, "background"); val != nil {
		c, err := paint.ParseColor(*val)
		if err != nil {
			return fmt.Errorf("invalid background: %w", err)
		}
		cfg.Background = c
	}
	if err := extractImages(cfg, table); err != nil {
		return err
	}
	return extractFonts(cfg, table)
}

// extractImages reads images = { name = "path", ... }.
func extractImages(cfg *Config, table *rt.Table) error {
	val := table.Get(rt.StringValue("images"))
	if val.IsNil() {
		return nil
	}
	images, ok := val.TryTable()
	if !ok {
		return fmt.Errorf("invalid images: must be a table of name = path")
	}
	for k, v, _ := images.Next(rt.NilValue); !k.IsNil(); k, v, _ = images.Next(k) {
		name, ok1 := k.TryString()
		p, ok2 := v.TryString()
		if !ok1 || !ok2 {
			return fmt.Errorf("invalid images entry %v: name and path must be strings", k)
		}
		cfg.Images[name] = p
	}
	return nil
}

// extractFonts reads fonts = { { family = "...", style = "bold", path = "..." }, ... }.
func extractFonts(cfg *Config, table *rt.Table) error {
	val := table.Get(rt.StringValue("fonts"))
	if val.IsNil() {
		return nil
	}
	fonts, ok := val.TryTable()
	if !ok {
		return fmt.Errorf("invalid fonts: must be a list")
	}
	for i := int64(1); ; i++ {
		e := fonts.Get(rt.IntValue(i))
		if e.IsNil() {
			return nil
		}
		ft, ok := e.TryTable()
		if !ok {
			return fmt.Errorf("invalid fonts[%d]: must be a table", i)
		}
		var fc FontConfig
		if v := getTableString(ft, "family"); v != nil {
			fc.Family = *v
		}
		if v := getTableString(ft, "path"); v != nil {
			fc.Path = *v
		}
		if v := getTableString(ft, "style"); v != nil {
			style, err := canvas.ParseFontStyle(*v)
			if err != nil {
				return fmt.Errorf("invalid fonts[%d]: %w", i, err)
			}
			fc.Style = style
		}
		cfg.Fonts = append(cfg.Fonts, fc)
	}
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val.IsNil() {
		return nil
	}
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}
	return nil
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	if s, ok := table.Get(rt.StringValue(key)).TryString(); ok {
		return &s
	}
	return nil
}

// getTableInt retrieves an int value from a Lua table, truncating floats.
// Returns nil if the key doesn't exist or is not a number.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}

func parseBool(s string) bool {
	switch s {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}
