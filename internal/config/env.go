package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches ${NAME}, ${NAME:-fallback} and $NAME. A bare name must
// start with a letter or underscore.
var envRef = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ExpandEnv replaces environment references in s. Unset names expand to
// "" unless a ${NAME:-fallback} form gives a fallback, which is also used
// when the variable is set but empty.
func ExpandEnv(s string) string {
	return expand(s, os.Getenv)
}

func expand(s string, lookup func(string) string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range envRef.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:m[0]])
		last = m[1]
		if m[4] >= 0 {
			b.WriteString(lookup(s[m[4]:m[5]]))
			continue
		}
		name, fallback, hasFallback := strings.Cut(s[m[2]:m[3]], ":-")
		v := lookup(name)
		if v == "" && hasFallback {
			v = fallback
		}
		b.WriteString(v)
	}
	b.WriteString(s[last:])
	return b.String()
}

// ExpandEnvConfig expands references in the values that point outside the
// file: the title, scene and output paths, asset paths and font families,
// and the log level.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, p := range []*string{&cfg.Title, &cfg.Scene, &cfg.Output, &cfg.LogLevel} {
		*p = ExpandEnv(*p)
	}
	for name, p := range cfg.Images {
		cfg.Images[name] = ExpandEnv(p)
	}
	for i := range cfg.Fonts {
		f := &cfg.Fonts[i]
		f.Family = ExpandEnv(f.Family)
		f.Path = ExpandEnv(f.Path)
	}
}
