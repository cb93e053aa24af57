package protocol

import "testing"

func TestRouteLog(t *testing.T) {
	tests := []struct {
		step string
		want Surface
	}{
		{"ASR", SurfaceASR},
		{"process", SurfaceASR},
		{"CALLER", SurfaceCaller},
		{"bert", SurfaceScam},
		{"ALERT", SurfaceScam},
		{"Scam", SurfaceScam},
		{"SLM", SurfaceSLM},
		{"SYSTEM", SurfaceConsole},
		{"SKIP", SurfaceConsole},
		{"", SurfaceConsole},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			if got := RouteLog(tt.step); got != tt.want {
				t.Errorf("RouteLog(%q) = %v, want %v", tt.step, got, tt.want)
			}
		})
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws/analyze"},
		{"https://demo.example.com/", "wss://demo.example.com/ws/analyze"},
		{"http://localhost:8000/demo?x=1", "ws://localhost:8000/ws/analyze"},
		{"wss://demo.example.com", "wss://demo.example.com/ws/analyze"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := StreamURL(tt.base)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("StreamURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestCheckURL(t *testing.T) {
	got, err := CheckURL("wss://demo.example.com/ws/analyze")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://demo.example.com/api/check-text" {
		t.Errorf("CheckURL = %q", got)
	}
}

func TestStreamURL_Invalid(t *testing.T) {
	for _, base := range []string{"", "localhost:8000", "ftp://host"} {
		if _, err := StreamURL(base); err == nil {
			t.Errorf("StreamURL(%q): expected error", base)
		}
	}
}
