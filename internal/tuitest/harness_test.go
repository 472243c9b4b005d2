package tuitest

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	raw := []byte("\x1b[2J\x1b[H\x1b[1mEduForge\x1b[0m  \r\nloading\r\n\x1b[2J\x1b[HEduForge\r\nFractions\r\n\r\n")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %#v", len(frames), frames)
	}
	if frames[0].Plain != "EduForge\nloading" {
		t.Fatalf("unexpected first frame %q", frames[0].Plain)
	}
	last, ok := (&Recording{Frames: frames}).FinalFrame()
	if !ok || strings.Join(last.Lines(), "|") != "EduForge|Fractions" {
		t.Fatalf("unexpected final frame %#v", last)
	}
}

func TestRecordingContainsSearchesAllFrames(t *testing.T) {
	rec := &Recording{
		Raw:    []byte("\x1b[32mCell biology quiz\x1b[0m"),
		Frames: []Frame{{Plain: "Fractions"}, {Plain: "Keyboard shortcuts"}},
	}
	for _, want := range []string{"Fractions", "Keyboard shortcuts", "Cell biology quiz"} {
		if !rec.Contains(want) {
			t.Fatalf("expected %q to be found", want)
		}
	}
	if rec.Contains("Photosynthesis") {
		t.Fatalf("unexpected match")
	}
	var missing *Recording
	if missing.Contains("x") {
		t.Fatalf("nil recording should contain nothing")
	}
}

func TestBuildEnvDefaults(t *testing.T) {
	env := buildEnv([]string{"PATH=/bin"}, []string{"LANG=es_ES.UTF-8"})
	joined := strings.Join(env, " ")
	if !strings.Contains(joined, "TERM=xterm-256color") {
		t.Fatalf("missing TERM default: %v", env)
	}
	if strings.Contains(joined, "en_US") {
		t.Fatalf("explicit LANG should win: %v", env)
	}

	env = buildEnv([]string{"TERM=screen"}, nil)
	if hasKey(env[1:], "TERM") {
		t.Fatalf("TERM should not be overridden: %v", env)
	}
}

func TestResponderAnswersCursorQuery(t *testing.T) {
	var out strings.Builder
	r := newTerminalResponder(&out)
	r.Process([]byte("abc\x1b[6"))
	r.Process([]byte("ndef"))
	if out.String() != "\x1b[1;1R" {
		t.Fatalf("unexpected response %q", out.String())
	}
}

func TestRunReplaysInput(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a PTY")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	rec, err := Run(context.Background(), Config{
		Command: []string{"sh", "-c", "read line; echo \"got:$line\""},
		Steps:   []Step{Wait(100 * time.Millisecond), Keys("eduforge\r")},
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rec.Contains("got:eduforge") {
		t.Fatalf("output missing echo: %q", rec.Raw)
	}
}

func TestRunRequiresCommand(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestResponderAnswersQueriesInOrder(t *testing.T) {
	var out strings.Builder
	r := newTerminalResponder(&out)
	r.Process([]byte("\x1b]11;?\x07text\x1b[6n"))
	if out.String() != "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R" {
		t.Fatalf("unexpected responses %q", out.String())
	}
}
