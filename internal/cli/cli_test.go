package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shekified/life-tracker/internal/metrics"
	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/telemetry"
)

type harness struct {
	t       *testing.T
	dataDir string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	for _, key := range []string{
		"LIFETRACKER_DATA_DIR", "LIFETRACKER_STORAGE", "LIFETRACKER_RECURRENCE_MODE",
		"LIFETRACKER_STREAK_LOOKBACK_DAYS", "LIFETRACKER_TELEMETRY", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	return harness{t: t, dataDir: t.TempDir()}
}

// run executes one CLI invocation against the harness data dir and returns
// stdout and stderr.
func (h harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	root := newRootCommand("test", "none", "today")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--config", filepath.Join(h.dataDir, "config.yaml"),
		"--data-dir", h.dataDir,
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	require.NoError(h.t, err, "args=%v stderr=%s", args, errOut)
	return out
}

func (h harness) listJSON(extra ...string) []model.Block {
	h.t.Helper()
	out := h.mustRun(append([]string{"list", "--json"}, extra...)...)
	var blocks []model.Block
	require.NoError(h.t, json.Unmarshal([]byte(out), &blocks))
	return blocks
}

func TestRoot_ShowsHelpWithoutSubcommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun()
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "lifetracker")
}

func TestRoot_RejectsUnknownFlag(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--unknown-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("add", "Write", "report", "--category", "work")
	assert.Contains(t, out, `Added "Write report"`)
	h.mustRun("add", "Morning run", "-k", "health", "--recurring")

	out = h.mustRun("list")
	assert.Contains(t, out, "1. [ ] Write report (Work)")
	assert.Contains(t, out, "2. [ ] Morning run (Health) ↻")
	assert.Contains(t, out, "Progress: 0%")

	blocks := h.listJSON()
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Order)
	assert.Equal(t, 1, blocks[1].Order)
	assert.True(t, blocks[1].IsRecurring)

	assert.FileExists(t, filepath.Join(h.dataDir, "blocks.json"))
	assert.FileExists(t, filepath.Join(h.dataDir, telemetry.DefaultFileName))
}

func TestAdd_RejectsUnknownCategoryAndEmptyTitle(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("add", "Nap", "--category", "leisure")
	require.Error(t, err)
	assert.Contains(t, errOut, "Unknown category")

	_, errOut, err = h.run("add", "   ")
	require.Error(t, err)
	assert.Contains(t, errOut, "Empty title")

	assert.Empty(t, h.listJSON())
}

func TestDone_TogglesAndReportsProgress(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")
	h.mustRun("add", "b")

	out := h.mustRun("done", "1")
	assert.Contains(t, out, `Completed "a" (50% today)`)

	var v statsView
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("stats", "--json")), &v))
	assert.Equal(t, 50, v.Progress)
	assert.Equal(t, 1, v.Streak)
	assert.Equal(t, 1, v.BestStreak)
	require.Len(t, v.Categories, 4)

	out = h.mustRun("done", "1")
	assert.Contains(t, out, `Reopened "a"`)
}

func TestDone_ByIDPrefix(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")
	id := string(h.listJSON()[0].ID)

	h.mustRun("done", id[:6])
	assert.True(t, h.listJSON()[0].Completed)
}

func TestUnknownReference(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")

	_, errOut, err := h.run("done", "5")
	require.Error(t, err)
	assert.Contains(t, errOut, "Block not found")

	_, _, err = h.run("rm", "zzzz-not-an-id")
	require.Error(t, err)
}

func TestMoveAndRemove(t *testing.T) {
	h := newHarness(t)
	for _, title := range []string{"a", "b", "c"} {
		h.mustRun("add", title)
	}

	h.mustRun("move", "3", "1")
	blocks := h.listJSON()
	require.Len(t, blocks, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{blocks[0].Title, blocks[1].Title, blocks[2].Title})

	out := h.mustRun("rm", "2")
	assert.Contains(t, out, `Deleted "a"`)
	blocks = h.listJSON()
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Order)
	assert.Equal(t, 1, blocks[1].Order)
}

func TestStop(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Run", "-r")
	h.mustRun("add", "Email")

	out := h.mustRun("stop", "1")
	assert.Contains(t, out, "Stopped recurrence (1 records updated)")
	assert.False(t, h.listJSON()[0].IsRecurring)

	out = h.mustRun("stop", "2")
	assert.Contains(t, out, "Block was not recurring")
}

func TestWeek(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")
	h.mustRun("done", "1")

	var week []metrics.DayCount
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("week", "--json")), &week))
	require.Len(t, week, 7)
	assert.Equal(t, 1, week[6].Count)
	assert.Zero(t, week[0].Count)

	out := h.mustRun("week")
	assert.Equal(t, 7, strings.Count(out, "\n"))
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Run", "-k", "health", "-r")

	out := h.mustRun("export")
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Run")
	assert.Contains(t, out, "RRULE:FREQ=DAILY")

	file := filepath.Join(t.TempDir(), "day.ics")
	h.mustRun("export", "--out", file)
	body, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VTODO")

	_, _, err = h.run("export", "--date", "yesterday")
	assert.Error(t, err)
}

func TestActivity(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")
	h.mustRun("add", "b")
	h.mustRun("done", "2")

	var stats telemetry.Stats
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("activity", "--json")), &stats))
	assert.Equal(t, 2, stats.BlocksAdded)
	assert.Equal(t, 1, stats.Completions)

	h.mustRun("activity", "--clear")
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("activity", "--json")), &stats))
	assert.Zero(t, stats.BlocksAdded)
}

func TestBackupAndRestore(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "a")

	archive := filepath.Join(t.TempDir(), "b.tar.gz")
	out := h.mustRun("backup", "--out", archive)
	assert.Contains(t, out, "Backed up")
	assert.FileExists(t, archive)

	target := filepath.Join(t.TempDir(), "restored")
	out = h.mustRun("restore", archive, "--target-dir", target)
	assert.Contains(t, out, "digest:")

	want, err := os.ReadFile(filepath.Join(h.dataDir, "blocks.json"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(target, "blocks.json"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteBackend(t *testing.T) {
	h := newHarness(t)
	h.mustRun("--storage", "sqlite", "add", "a")
	h.mustRun("--storage", "sqlite", "add", "b")

	blocks := h.listJSON("--storage", "sqlite")
	require.Len(t, blocks, 2)
	assert.FileExists(t, filepath.Join(h.dataDir, "blocks.db"))
	assert.NoFileExists(t, filepath.Join(h.dataDir, "blocks.json"))
}

func TestInvalidStorageBackend(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--storage", "redis", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}
