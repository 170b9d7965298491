package relay

import "testing"

func TestSplitFrame(t *testing.T) {
	tests := []struct {
		name        string
		frame       string
		wantCommand string
		wantPayload string
		wantOK      bool
	}{
		{"update", `update:{"left":{}}`, "update", `{"left":{}}`, true},
		{"splits on first colon only", `update:{"a":"b:c"}`, "update", `{"a":"b:c"}`, true},
		{"empty payload", "ping:", "ping", "", true},
		{"no colon", "update", "", "", false},
		{"empty command", ":payload", "", "", false},
		{"empty frame", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, payload, ok := SplitFrame(tt.frame)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if command != tt.wantCommand {
				t.Errorf("Expected command %q, got %q", tt.wantCommand, command)
			}
			if payload != tt.wantPayload {
				t.Errorf("Expected payload %q, got %q", tt.wantPayload, payload)
			}
		})
	}
}
