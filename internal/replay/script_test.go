package replay

import (
	"errors"
	"strings"
	"testing"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

const testScript = `{
  "events": [
    {"delay_ms": 0, "message": {"type": "log", "step": "AI", "message": "Loading model"}},
    {"delay_ms": 10, "message": {"type": "result", "start": 0, "end": 2.5, "role": "CALLER", "speaker": "SPEAKER_00", "text": "สวัสดีครับ", "status": "WAIT", "confidence": 0.4}},
    {"delay_ms": 10, "message": {"type": "result", "start": 2.5, "end": 5, "role": "CALLER", "speaker": "SPEAKER_00", "text": "โอนเงินด่วน", "status": "SCAM", "confidence": 0.93, "reason": "ขอให้โอนเงิน"}}
  ],
  "verdicts": [
    {"contains": "OTP", "label": "SCAM", "confidence": 0.97, "reason": "ขอรหัส OTP"},
    {"contains": "โอนเงิน", "label": "WAIT", "confidence": 0.6}
  ]
}`

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseScript(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	return s
}

func TestParseScript(t *testing.T) {
	s := mustParse(t, testScript)
	if len(s.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.Events))
	}
	if s.DefaultVerdict.Label != protocol.StatusSafe {
		t.Errorf("default verdict label = %q, want SAFE", s.DefaultVerdict.Label)
	}
}

func TestParseScript_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not json", `{events`},
		{"negative delay", `{"events":[{"delay_ms":-1,"message":{"status":"FINISHED"}}]}`},
		{"message not object", `{"events":[{"delay_ms":0,"message":"hello"}]}`},
		{"verdict without contains", `{"verdicts":[{"label":"SCAM"}]}`},
		{"verdict without label", `{"verdicts":[{"contains":"otp"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScript(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadScript_Missing(t *testing.T) {
	if _, err := LoadScript(t.TempDir() + "/missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScript_Classify(t *testing.T) {
	s := mustParse(t, testScript)

	tests := []struct {
		text      string
		wantLabel protocol.Status
		wantText  string
	}{
		{"please read me the otp code", protocol.StatusScam, "please read me the otp code"},
		{"  ช่วยโอนเงินให้หน่อย  ", protocol.StatusWait, "ช่วยโอนเงินให้หน่อย"},
		{"see you tomorrow", protocol.StatusSafe, "see you tomorrow"},
	}
	for _, tt := range tests {
		t.Run(tt.wantText, func(t *testing.T) {
			got, err := s.Classify(tt.text)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Text != tt.wantText {
				t.Errorf("text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestScript_ClassifyEmpty(t *testing.T) {
	s := mustParse(t, testScript)
	if _, err := s.Classify("   "); !errors.Is(err, ErrTextRequired) {
		t.Errorf("expected ErrTextRequired, got %v", err)
	}
}

func TestLoadScript_BundledDemo(t *testing.T) {
	s, err := LoadScript("../../testdata/scam_bank.json")
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	for i, ev := range s.Events {
		if _, err := protocol.Decode(ev.Message); err != nil {
			t.Errorf("event %d does not decode: %v", i, err)
		}
	}
	got, err := s.Classify("ขอรหัส OTP ด้วยครับ")
	if err != nil || got.Label != protocol.StatusScam {
		t.Errorf("Classify = %+v, %v", got, err)
	}
}
