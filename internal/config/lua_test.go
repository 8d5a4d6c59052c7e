package config

import (
	"strings"
	"testing"

	"github.com/opd-ai/ncontrol/internal/canvas"
	"github.com/opd-ai/ncontrol/internal/paint"
)

func TestLuaConfigParserDefaults(t *testing.T) {
	cfg, err := NewLuaConfigParser().Parse("empty.lua", []byte(`-- nothing set`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.Width != def.Width || cfg.Height != def.Height {
		t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, def.Width, def.Height)
	}
	if cfg.Backend != BackendWindow {
		t.Errorf("Backend = %v, want window", cfg.Backend)
	}
	if !cfg.MultiTouch {
		t.Error("MultiTouch = false, want true")
	}
	if cfg.Background != DefaultBackground {
		t.Errorf("Background = %v, want %v", cfg.Background, DefaultBackground)
	}
}

func TestLuaConfigParserFields(t *testing.T) {
	src := `
ncontrol.config = {
	width = 800,
	height = 600.0,
	title = "Panel",
	background = "#102030",
	transparent = true,
	tps = 30,
	backend = "terminal",
	multi_touch = "no",
	watch = "yes",
	scene = "scene.lua",
	log_level = "debug",
	output = "frame.png",
	images = { logo = "img/logo.png", icon = "icon.png" },
	fonts = {
		{ family = "Body", path = "fonts/body.ttf" },
		{ family = "Body", style = "bold", path = "fonts/body-bold.ttf" },
	},
}
ncontrol.view{ id = "ignored" }
`
	cfg, err := NewLuaConfigParser().Parse("full.lua", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Width != 800 || cfg.Height != 600 {
		t.Errorf("size = %dx%d, want 800x600", cfg.Width, cfg.Height)
	}
	if cfg.Title != "Panel" {
		t.Errorf("Title = %q, want %q", cfg.Title, "Panel")
	}
	if want := paint.RGB(0x10, 0x20, 0x30); cfg.Background != want {
		t.Errorf("Background = %v, want %v", cfg.Background, want)
	}
	if !cfg.Transparent || !cfg.Watch || cfg.MultiTouch {
		t.Errorf("Transparent, Watch, MultiTouch = %v, %v, %v, want true, true, false",
			cfg.Transparent, cfg.Watch, cfg.MultiTouch)
	}
	if cfg.TPS != 30 {
		t.Errorf("TPS = %d, want 30", cfg.TPS)
	}
	if cfg.Backend != BackendTerminal {
		t.Errorf("Backend = %v, want terminal", cfg.Backend)
	}
	if cfg.Scene != "scene.lua" || cfg.Output != "frame.png" || cfg.LogLevel != "debug" {
		t.Errorf("Scene, Output, LogLevel = %q, %q, %q", cfg.Scene, cfg.Output, cfg.LogLevel)
	}
	if len(cfg.Images) != 2 || cfg.Images["logo"] != "img/logo.png" {
		t.Errorf("Images = %v", cfg.Images)
	}
	if len(cfg.Fonts) != 2 {
		t.Fatalf("len(Fonts) = %d, want 2", len(cfg.Fonts))
	}
	if cfg.Fonts[1].Style != canvas.FontStyleBold || cfg.Fonts[1].Path != "fonts/body-bold.ttf" {
		t.Errorf("Fonts[1] = %+v", cfg.Fonts[1])
	}
}

func TestLuaConfigParserErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"syntax error", `ncontrol.config = {`, "failed to execute"},
		{"runtime error", `error("boom")`, "boom"},
		{"config not a table", `ncontrol.config = 5`, "not a table"},
		{"bad backend", `ncontrol.config = { backend = "vr" }`, "invalid backend"},
		{"bad background", `ncontrol.config = { background = "nope" }`, "invalid background"},
		{"images not a table", `ncontrol.config = { images = "x" }`, "invalid images"},
		{"image path not a string", `ncontrol.config = { images = { a = 1 } }`, "invalid images entry"},
		{"fonts not a list", `ncontrol.config = { fonts = 3 }`, "invalid fonts"},
		{"font entry not a table", `ncontrol.config = { fonts = { "x" } }`, "invalid fonts[1]"},
		{"bad font style", `ncontrol.config = { fonts = { { family = "A", path = "a", style = "wavy" } } }`, "invalid fonts[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLuaConfigParser().Parse(tt.name, []byte(tt.src))
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLuaConfigParserIsSandboxed(t *testing.T) {
	_, err := NewLuaConfigParser().Parse("loop.lua", []byte(`while true do end`))
	if err == nil {
		t.Fatal("Parse() of an endless loop succeeded, want a limit error")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendWindow, false},
		{"window", BackendWindow, false},
		{" Terminal ", BackendTerminal, false},
		{"tty", BackendTerminal, false},
		{"png", BackendPNG, false},
		{"image", BackendPNG, false},
		{"vr", BackendWindow, true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBackend(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBackendString(t *testing.T) {
	for b, want := range map[Backend]string{
		BackendWindow:   "window",
		BackendTerminal: "terminal",
		BackendPNG:      "png",
		Backend(42):     "unknown",
	} {
		if got := b.String(); got != want {
			t.Errorf("Backend(%d).String() = %q, want %q", int(b), got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	cfg := &Config{Dir: "/etc/ncontrol", Images: map[string]string{"a": "a.png", "b": "/abs/b.png"}}
	tests := []struct{ in, want string }{
		{"", ""},
		{"scene.lua", "/etc/ncontrol/scene.lua"},
		{"/tmp/x.lua", "/tmp/x.lua"},
	}
	for _, tt := range tests {
		if got := cfg.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	paths := cfg.ImagePaths()
	if paths["a"] != "/etc/ncontrol/a.png" || paths["b"] != "/abs/b.png" {
		t.Errorf("ImagePaths() = %v", paths)
	}
	if cfg.Images["a"] != "a.png" {
		t.Error("ImagePaths() modified Images")
	}
}
