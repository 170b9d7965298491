package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/mcdu/internal/history"
	"github.com/studiowebux/mcdu/internal/markup"
	"github.com/studiowebux/mcdu/internal/relay"
	"github.com/studiowebux/mcdu/internal/screen"
	"gopkg.in/yaml.v3"
)

const perfPage = "testdata/perf_page.jsonc"

func TestInspect_Text(t *testing.T) {
	var out bytes.Buffer
	err := Inspect(InspectOptions{Path: perfPage, Side: screen.SideLeft, Out: &out})
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"|        TAKE OFF        |",
		"NOT ALLOWED",
		`"140"`,
		"cyan",
		"down=true",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestInspect_JSONAndYAML(t *testing.T) {
	var out bytes.Buffer
	if err := Inspect(InspectOptions{Path: perfPage, Format: "json", Out: &out}); err != nil {
		t.Fatalf("Inspect json failed: %v", err)
	}

	var decoded struct {
		Title struct {
			Runs []struct {
				Text string   `json:"text"`
				Tags []string `json:"tags"`
			} `json:"runs"`
		} `json:"title"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if len(decoded.Title.Runs) != 1 || decoded.Title.Runs[0].Text != "TAKE OFF" {
		t.Fatalf("Unexpected title runs: %+v", decoded.Title.Runs)
	}
	if decoded.Title.Runs[0].Tags[0] != "green" {
		t.Errorf("Expected green tag, got %v", decoded.Title.Runs[0].Tags)
	}

	out.Reset()
	if err := Inspect(InspectOptions{Path: perfPage, Format: "yaml", Out: &out}); err != nil {
		t.Fatalf("Inspect yaml failed: %v", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &generic); err != nil {
		t.Fatalf("Expected valid YAML, got: %v", err)
	}
	if _, ok := generic["scratchpad"]; !ok {
		t.Errorf("Expected scratchpad key in YAML output, got %v", generic)
	}
}

func TestInspect_Filter(t *testing.T) {
	var out bytes.Buffer
	err := Inspect(InspectOptions{Path: perfPage, Query: "scratchpad.runs[0].text", Out: &out})
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `"NOT ALLOWED"` {
		t.Errorf("Expected \"NOT ALLOWED\", got %s", got)
	}
}

func TestInspect_UnknownTag(t *testing.T) {
	var out bytes.Buffer

	err := Inspect(InspectOptions{Path: "testdata/unknown_tag.frame", Out: &out})
	if !errors.Is(err, markup.ErrUnknownTag) {
		t.Fatalf("Expected ErrUnknownTag, got: %v", err)
	}

	// Lenient decoding falls back and succeeds
	err = Inspect(InspectOptions{Path: "testdata/unknown_tag.frame", Lenient: true, Out: &out})
	if err != nil {
		t.Errorf("Expected lenient inspect to succeed, got: %v", err)
	}
}

func TestInspect_MissingFile(t *testing.T) {
	err := Inspect(InspectOptions{Path: "testdata/nope.json", Out: &bytes.Buffer{}})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got: %v", err)
	}
}

func TestSend_ReachesRelay(t *testing.T) {
	queue := relay.NewQueue(8, relay.DropOldest)
	server := relay.NewServer(relay.Config{Host: "127.0.0.1"}, nil, queue, nil)
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start relay: %v", err)
	}
	defer server.Stop(context.Background())

	var out bytes.Buffer
	err := Send(context.Background(), SendOptions{
		URL:    server.URL(),
		Paths:  []string{perfPage},
		Repeat: 2,
		Out:    &out,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !strings.Contains(out.String(), "Sent 2 frame(s)") {
		t.Errorf("Unexpected output: %s", out.String())
	}

	deadline := time.Now().Add(3 * time.Second)
	for queue.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 2 queued updates, got %d", queue.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := queue.Drain()[0].Title.String(); got != "TAKE OFF" {
		t.Errorf("Expected title 'TAKE OFF', got %q", got)
	}
}

func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")

	recorder, err := history.NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer recorder.Close()

	payload, err := screen.LoadFixture(perfPage)
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
	recorder.RecordFrame("127.0.0.1:5000", string(payload), nil)
	recorder.RecordFrame("127.0.0.1:5000", "{bad", errors.New("malformed message"))
	recorder.RecordFrame("127.0.0.1:5001", string(payload), nil)

	return path
}

func TestHistory_ListFormats(t *testing.T) {
	path := seedHistory(t)

	var out bytes.Buffer
	if err := History(HistoryOptions{DBPath: path, Prune: -1, Out: &out}); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "error: malformed message") {
		t.Errorf("Expected failed frame to show its error, got %q", lines[1])
	}

	out.Reset()
	err := History(HistoryOptions{
		DBPath: path,
		Prune:  -1,
		Format: "json",
		List:   history.ListOptions{AcceptedOnly: true},
		Out:    &out,
	})
	if err != nil {
		t.Fatalf("History json failed: %v", err)
	}
	var frames []history.Frame
	if err := json.Unmarshal(out.Bytes(), &frames); err != nil {
		t.Fatalf("Expected JSON frames, got: %v", err)
	}
	if len(frames) != 2 {
		t.Errorf("Expected 2 accepted frames, got %d", len(frames))
	}
}

func TestHistory_ExportAndPrune(t *testing.T) {
	path := seedHistory(t)
	exportPath := filepath.Join(t.TempDir(), "frames.yaml")

	var out bytes.Buffer
	if err := History(HistoryOptions{DBPath: path, Prune: -1, Export: exportPath, Out: &out}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("Expected export file, got: %v", err)
	}

	out.Reset()
	if err := History(HistoryOptions{DBPath: path, Prune: 1, Out: &out}); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if !strings.Contains(out.String(), "Removed 2 frame(s)") {
		t.Errorf("Unexpected prune output: %s", out.String())
	}

	out.Reset()
	if err := History(HistoryOptions{DBPath: path, Clear: true, Out: &out}); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	out.Reset()
	History(HistoryOptions{DBPath: path, Prune: -1, Out: &out})
	if !strings.Contains(out.String(), "No frames recorded") {
		t.Errorf("Expected empty history, got: %s", out.String())
	}
}

func TestReplay_ToRelay(t *testing.T) {
	path := seedHistory(t)

	queue := relay.NewQueue(8, relay.DropOldest)
	server := relay.NewServer(relay.Config{Host: "127.0.0.1"}, nil, queue, nil)
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start relay: %v", err)
	}
	defer server.Stop(context.Background())

	var out bytes.Buffer
	err := Replay(context.Background(), ReplayOptions{
		DBPath: path,
		List:   history.ListOptions{AcceptedOnly: true, Oldest: true},
		URL:    server.URL(),
		Out:    &out,
	})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for queue.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected 2 replayed updates, got %d", queue.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReplay_EmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	err := Replay(context.Background(), ReplayOptions{DBPath: path, URL: "ws://127.0.0.1:1/", Out: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "no frames") {
		t.Errorf("Expected 'no frames' error, got: %v", err)
	}
}

func TestFeedReplay_LogsDiscardedFrames(t *testing.T) {
	good, err := screen.LoadFixture(perfPage)
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
	frames := []history.Frame{
		{ID: 1, Payload: string(good)},
		{ID: 2, Payload: "{not valid json"},
		{ID: 3, Payload: string(good)},
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	queue := relay.NewQueue(len(frames), relay.DropOldest)

	queued := feedReplay(context.Background(), frames, screen.NewDecoder(screen.SideLeft, false), queue, 0, logger)
	if queued != 2 {
		t.Errorf("Expected 2 queued updates, got %d", queued)
	}
	if queue.Len() != 2 {
		t.Errorf("Expected 2 pending updates, got %d", queue.Len())
	}
	if !strings.Contains(logs.String(), "replayed frame discarded") || !strings.Contains(logs.String(), "id=2") {
		t.Errorf("Expected discarded frame 2 to be logged, got: %s", logs.String())
	}
}

func TestFeedReplay_LogsRejectedPush(t *testing.T) {
	good, err := screen.LoadFixture(perfPage)
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
	frames := []history.Frame{{ID: 1, Payload: string(good)}, {ID: 2, Payload: string(good)}}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	queue := relay.NewQueue(1, relay.Reject)

	queued := feedReplay(context.Background(), frames, screen.NewDecoder(screen.SideLeft, false), queue, 0, logger)
	if queued != 1 {
		t.Errorf("Expected 1 queued update, got %d", queued)
	}
	if !strings.Contains(logs.String(), "replayed frame dropped") {
		t.Errorf("Expected rejected push to be logged, got: %s", logs.String())
	}
}

func TestPicker_EnterChoosesFrame(t *testing.T) {
	frames := []history.Frame{
		{ID: 1, Remote: "a", Payload: "{}"},
		{ID: 2, Remote: "b", Payload: "{}"},
	}
	m := newPicker(frames)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.(pickerModel).Update(tea.KeyMsg{Type: tea.KeyEnter})

	result := next.(pickerModel)
	if result.choice == nil || result.choice.ID != 2 {
		t.Fatalf("Expected frame 2 to be chosen, got %+v", result.choice)
	}
	if cmd == nil {
		t.Fatal("Expected quit command after selection")
	}
	if result.View() != "" {
		t.Error("Expected empty view after quitting")
	}
}

func TestPicker_Cancel(t *testing.T) {
	m := newPicker([]history.Frame{{ID: 1}})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if next.(pickerModel).choice != nil {
		t.Error("Expected no choice after cancel")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != "json" {
		t.Errorf("Expected json, got %q (%v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for xml")
	}
}
