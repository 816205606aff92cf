package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/stemrender/cmd/stemrender/internal/config"
	"github.com/haivivi/stemrender/pkg/audio/codec/wav"
	"github.com/haivivi/stemrender/pkg/audio/pcm"
)

func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	return dir
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// studio is a configured context with a kick sample on disk.
type studio struct {
	dir       string
	outputDir string
	manifest  string
	request   string
}

const testManifest = `instruments:
  kick:
    - {id: k1, path: drums/kick.wav, natural_pitch: 36}
  pad:
    - {id: p1, path: pads/missing.wav}
`

const testRequest = `project_name: demo
run_id: r1
fade_seconds: 0.01
plan:
  meta: {tempo_bpm: 120, bars: 1}
  pattern:
    kick:
      - index: 0
        events:
          - {step: 0, note: 36, velocity: 120}
          - {step: 4, note: 36, velocity: 90}
    pad:
      - index: 0
        events: [{step: 0, note: 60}]
tracks:
  - {instrument: kick, volume_db: -3, pan: -0.5}
  - {instrument: pad}
`

func setupStudio(t *testing.T) *studio {
	t.Helper()
	root := setupTestEnv(t)
	s := &studio{dir: t.TempDir()}
	s.outputDir = filepath.Join(s.dir, "renders")

	if _, _, code := runCmd(t, "config", "add-context", "test"); code != 0 {
		t.Fatal("add-context failed")
	}
	if _, _, code := runCmd(t, "config", "use-context", "test"); code != 0 {
		t.Fatal("use-context failed")
	}

	svc := &config.RenderService{
		SampleRate: 8000,
		Workers:    2,
		CatalogDir: filepath.Join(s.dir, "db"),
		RunsDir:    filepath.Join(s.dir, "db"),
	}
	svc.Samples.Dir = filepath.Join(s.dir, "samples")
	svc.Output.Dir = s.outputDir
	if err := config.SaveService(filepath.Join(root, "contexts", "test"), config.RenderServiceName, svc); err != nil {
		t.Fatal(err)
	}

	kick := pcm.NewStereo(400)
	for i := range kick.L {
		kick.L[i], kick.R[i] = 0.5, 0.5
	}
	if err := os.MkdirAll(filepath.Join(s.dir, "samples", "drums"), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(s.dir, "samples", "drums", "kick.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, kick, 8000); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s.manifest = writeTestFile(t, s.dir, "manifest.yaml", testManifest)
	s.request = writeTestFile(t, s.dir, "request.yaml", testRequest)
	return s
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "stemrender") {
		t.Fatalf("expected 'stemrender', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestBadFormat(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "version", "--format", "xml")
	if code == 0 || !strings.Contains(stderr, "unsupported output format") {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
}

func TestConfigContexts(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "config", "list-contexts")
	if code != 0 || !strings.Contains(stdout, "No contexts") {
		t.Fatalf("exit %d: %s", code, stdout)
	}

	if stdout, _, code = runCmd(t, "config", "add-context", "dev"); code != 0 || !strings.Contains(stdout, "created") {
		t.Fatalf("add-context: exit %d: %s", code, stdout)
	}
	_, stderr, code := runCmd(t, "config", "add-context", "dev")
	if code == 0 || !strings.Contains(stderr, "already exists") {
		t.Fatalf("duplicate add-context: exit %d: %s", code, stderr)
	}

	runCmd(t, "config", "use-context", "dev")
	if stdout, _, _ = runCmd(t, "config", "current-context"); strings.TrimSpace(stdout) != "dev" {
		t.Fatalf("current-context = %q", stdout)
	}

	if _, stderr, code = runCmd(t, "config", "set", "dev", "samples.dir", "/srv/samples"); code != 0 {
		t.Fatalf("set: %s", stderr)
	}
	runCmd(t, "config", "set", "dev", "sample_rate", "48000")
	if stdout, _, _ = runCmd(t, "config", "get", "dev", "samples.dir"); strings.TrimSpace(stdout) != "/srv/samples" {
		t.Fatalf("get samples.dir = %q", stdout)
	}
	if stdout, _, _ = runCmd(t, "config", "get", "dev", "sample_rate"); strings.TrimSpace(stdout) != "48000" {
		t.Fatalf("get sample_rate = %q", stdout)
	}
	if _, _, code = runCmd(t, "config", "get", "dev", "output.bucket"); code == 0 {
		t.Fatal("expected error for unset key")
	}

	stdout, _, _ = runCmd(t, "config", "list-contexts")
	if !strings.Contains(stdout, "*") || !strings.Contains(stdout, "render") {
		t.Fatalf("list-contexts = %s", stdout)
	}

	if _, _, code = runCmd(t, "config", "delete-context", "dev"); code != 0 {
		t.Fatal("delete-context failed")
	}
	if stdout, _, _ = runCmd(t, "config", "current-context"); !strings.Contains(stdout, "No current context") {
		t.Fatalf("current-context after delete = %q", stdout)
	}
}

func TestRenderRequiresContext(t *testing.T) {
	dir := setupTestEnv(t)
	req := writeTestFile(t, dir, "req.yaml", testRequest)
	_, stderr, code := runCmd(t, "render", "-f", req)
	if code == 0 || !strings.Contains(stderr, "no current context") {
		t.Fatalf("exit %d: %s", code, stderr)
	}
}

func TestRenderMissingFlag(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "render")
	if code == 0 || !strings.Contains(stderr, "-f is required") {
		t.Fatalf("exit %d: %s", code, stderr)
	}
}

func TestCatalogImportAndList(t *testing.T) {
	s := setupStudio(t)

	stdout, stderr, code := runCmd(t, "catalog", "import", s.manifest, "--format", "json")
	if code != 0 {
		t.Fatalf("import: %s", stderr)
	}
	var stats struct{ Instruments, Assets int }
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil || stats.Instruments != 2 || stats.Assets != 2 {
		t.Fatalf("stats = %+v (%v): %s", stats, err, stdout)
	}

	stdout, _, code = runCmd(t, "catalog", "list", "--format", "table")
	if code != 0 {
		t.Fatalf("list exit %d", code)
	}
	for _, want := range []string{"INSTRUMENT", "k1", "drums/kick.wav", "36", "p1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("catalog list missing %q:\n%s", want, stdout)
		}
	}

	if _, stderr, code = runCmd(t, "catalog", "list", "lead"); code == 0 || !strings.Contains(stderr, "not found") {
		t.Fatalf("list unknown: exit %d: %s", code, stderr)
	}
}

func TestRenderEndToEnd(t *testing.T) {
	s := setupStudio(t)
	runCmd(t, "catalog", "import", s.manifest)

	stdout, stderr, code := runCmd(t, "render", "-f", s.request, "--format", "json")
	if code != 0 {
		t.Fatalf("render: %s", stderr)
	}
	if !strings.Contains(stderr, `"pad"`) {
		t.Errorf("expected a warning for the missing pad, got: %s", stderr)
	}

	var res struct {
		RunID  string `json:"run_id"`
		Master struct {
			Path     string `json:"path"`
			Location string `json:"location"`
		} `json:"master"`
		Stems      []struct{ Instrument, Path string }
		Missing    []string `json:"missing"`
		SampleRate int      `json:"sample_rate"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode result: %v\n%s", err, stdout)
	}
	if res.RunID != "r1" || res.SampleRate != 8000 || len(res.Missing) != 1 || res.Missing[0] != "pad" {
		t.Fatalf("result = %+v", res)
	}
	if res.Master.Location != filepath.Join(s.outputDir, "demo", "r1", "master.wav") {
		t.Fatalf("master location = %s", res.Master.Location)
	}

	f, err := os.Open(res.Master.Location)
	if err != nil {
		t.Fatal(err)
	}
	master, rate, err := wav.Decode(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if rate != 8000 || len(master) != 16000 {
		t.Fatalf("master: %d frames at %d Hz", len(master), rate)
	}
	if _, err := os.Stat(filepath.Join(s.outputDir, "demo", "r1", "stems", "kick.wav")); err != nil {
		t.Fatalf("kick stem: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.outputDir, "demo", "r1", "stems", "pad.wav")); !os.IsNotExist(err) {
		t.Fatalf("pad stem should not exist: %v", err)
	}

	stdout, _, code = runCmd(t, "runs", "get", "demo", "r1", "--format", "json")
	if code != 0 || !strings.Contains(stdout, `"status": "complete"`) {
		t.Fatalf("runs get: exit %d: %s", code, stdout)
	}
	stdout, _, _ = runCmd(t, "runs", "list", "demo", "--format", "table")
	if !strings.Contains(stdout, "r1") || !strings.Contains(stdout, "complete") || !strings.Contains(stdout, "pad") {
		t.Fatalf("runs list = %s", stdout)
	}

	// The run id is taken now.
	_, stderr, code = runCmd(t, "render", "-f", s.request)
	if code == 0 || !strings.Contains(stderr, "already exists") {
		t.Fatalf("second render: exit %d: %s", code, stderr)
	}

	// A fresh run id renders again.
	_, stderr, code = runCmd(t, "render", "-f", s.request, "--run-id", "r2", "--format", "table")
	if code != 0 {
		t.Fatalf("render r2: %s", stderr)
	}
}

func TestRenderDryRun(t *testing.T) {
	s := setupStudio(t)
	runCmd(t, "catalog", "import", s.manifest)

	stdout, stderr, code := runCmd(t, "render", "-f", s.request, "--dry-run", "--format", "json")
	if code != 0 {
		t.Fatalf("dry run: %s", stderr)
	}
	var report struct {
		Timeline struct {
			Frames     int `json:"frames"`
			StepFrames int `json:"step_frames"`
		} `json:"timeline"`
		Missing    []string `json:"missing"`
		MasterPeak float64  `json:"master_peak"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if report.Timeline.Frames != 16000 || report.Timeline.StepFrames != 2000 {
		t.Fatalf("timeline = %+v", report.Timeline)
	}
	if report.MasterPeak < 0.89 || report.MasterPeak > 0.9+1e-9 {
		t.Fatalf("master peak = %v", report.MasterPeak)
	}
	if _, err := os.Stat(filepath.Join(s.outputDir, "demo")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote outputs: %v", err)
	}
	if _, _, code := runCmd(t, "runs", "get", "demo", "r1"); code == 0 {
		t.Fatal("dry run recorded a run")
	}
}

const testPlan = `{
  "meta": {"tempo_bpm": 96, "bars": 2},
  "pattern": {
    "kick": [{"index": 0, "events": [{"step": 0, "note": 36}]}],
    "bass": [{"index": 1, "events": [{"step": 2, "note": 40, "length": 2}]}]
  }
}`

func TestPlanTimeline(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeTestFile(t, dir, "plan.json", testPlan)

	stdout, stderr, code := runCmd(t, "plan", "timeline", "-f", path, "--sample-rate", "8000", "--format", "json")
	if code != 0 {
		t.Fatalf("timeline: %s", stderr)
	}
	var report struct {
		Bars            int      `json:"bars"`
		DurationSeconds float64  `json:"duration_seconds"`
		Frames          int      `json:"frames"`
		StepFrames      int      `json:"step_frames"`
		TempoBPM        float64  `json:"tempo_bpm"`
		Instruments     []string `json:"instruments"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if report.Bars != 2 || report.DurationSeconds != 4 || report.Frames != 32000 || report.StepFrames != 2000 {
		t.Fatalf("report = %+v", report)
	}
	if report.TempoBPM != 96 || strings.Join(report.Instruments, ",") != "bass,kick" {
		t.Fatalf("report = %+v", report)
	}

	// A request document works too.
	req := writeTestFile(t, dir, "request.yaml", testRequest)
	stdout, _, code = runCmd(t, "plan", "timeline", "-f", req, "--format", "json")
	if code != 0 || !strings.Contains(stdout, `"frames": 88200`) {
		t.Fatalf("timeline of request: exit %d: %s", code, stdout)
	}
}

func TestPlanMIDI(t *testing.T) {
	dir := setupTestEnv(t)
	path := writeTestFile(t, dir, "plan.json", testPlan)
	out := filepath.Join(dir, "plan.mid")

	if _, stderr, code := runCmd(t, "plan", "midi", "-f", path); code == 0 || !strings.Contains(stderr, "-o is required") {
		t.Fatalf("missing -o: exit %d: %s", code, stderr)
	}
	if _, stderr, code := runCmd(t, "plan", "midi", "-f", path, "-o", out); code != 0 {
		t.Fatalf("midi: %s", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("MThd")) || bytes.Count(data, []byte("MTrk")) != 3 {
		t.Fatalf("not a 3-track SMF: % x", data[:min(len(data), 32)])
	}
}
