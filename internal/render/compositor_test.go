package render

import "testing"

func TestCompositorStatusString(t *testing.T) {
	tests := []struct {
		status CompositorStatus
		want   string
	}{
		{CompositorUnknown, "unknown"},
		{CompositorActive, "active"},
		{CompositorInactive, "inactive"},
		{CompositorStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("CompositorStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestCheckTransparencySupport(t *testing.T) {
	saved := probeCompositor
	defer func() { probeCompositor = saved }()

	tests := []struct {
		name        string
		transparent bool
		status      CompositorStatus
		wantWarning bool
	}{
		{"opaque", false, CompositorInactive, false},
		{"active", true, CompositorActive, false},
		{"inactive", true, CompositorInactive, true},
		{"unknown", true, CompositorUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probeCompositor = func() CompositorStatus { return tt.status }
			got := CheckTransparencySupport(tt.transparent)
			if (got != "") != tt.wantWarning {
				t.Errorf("CheckTransparencySupport(%v) = %q, want warning %v", tt.transparent, got, tt.wantWarning)
			}
		})
	}
}
