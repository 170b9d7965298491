package filter

import (
	"strings"
	"testing"

	"github.com/studiowebux/mcdu/internal/markup"
	"github.com/studiowebux/mcdu/internal/screen"
)

func TestApplyJSON(t *testing.T) {
	body := `{"title":"INIT","lines":[["A","",""],["","B",""]],"arrows":{"up":true,"down":false}}`

	tests := []struct {
		name    string
		filter  string
		query   string
		want    string
		wantErr bool
	}{
		{"no expressions", "", "", body, false},
		{"field", "title", "", `"INIT"`, false},
		{"nested query", "", "arrows.up", "true", false},
		{"filter then query", "lines", "[1][1]", `"B"`, false},
		{"missing field", "nope", "", "null", false},
		{"bad expression", "lines[", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyJSON(body, tt.filter, tt.query)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestApply_ScreenUpdate(t *testing.T) {
	parsed, err := markup.Parse("{amber}INIT{end}")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	update := screen.ScreenUpdate{Title: parsed, Arrows: screen.ArrowFlags{Up: true}}

	got, err := Apply(update, "", "title.runs[0].tags")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(got, `"amber"`) {
		t.Errorf("Expected tags to include amber, got %s", got)
	}
}

func TestApplyJSON_InvalidJSON(t *testing.T) {
	if _, err := ApplyJSON("{", "a", ""); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestApplyJSON_ShellQuery(t *testing.T) {
	got, err := ApplyJSON(`{"a":1}`, "", "$(cat)")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("Expected body to pass through cat, got %s", got)
	}
}

func TestIsShellCommand(t *testing.T) {
	if !IsShellCommand("$(jq .)") {
		t.Error("Expected $(jq .) to be a shell command")
	}
	if IsShellCommand("title") {
		t.Error("Expected title not to be a shell command")
	}
}

func TestIsValidJMESPath(t *testing.T) {
	if !IsValidJMESPath("lines[0]") {
		t.Error("Expected lines[0] to be valid")
	}
	if IsValidJMESPath("lines[") {
		t.Error("Expected lines[ to be invalid")
	}
}
