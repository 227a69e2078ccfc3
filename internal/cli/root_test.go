package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/progress/internal/config"
	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "progress", cmd.Use)
	assert.Contains(t, cmd.Long, "SM-2")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"add-habit", "remove-habit", "check-in", "streak", "habit",
		"add-item", "remove-item", "grade", "item",
		"list-due", "summary", "reset", "import", "export", "remind", "config",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "store", "backend", "today"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestDateFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"check-in", "add-item", "grade", "list-due"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("date"), name)
	}
}

// cliEnv runs commands against a private store with a pinned date.
type cliEnv struct {
	t     *testing.T
	dir   string
	store string
	today string
}

func newCLIEnv(t *testing.T, today string) *cliEnv {
	t.Setenv("PROGRESS_STORE", "")
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, store: filepath.Join(dir, "state.json"), today: today}
}

func (e *cliEnv) run(args ...string) (stdout, stderr string, code int) {
	e.t.Helper()
	full := append([]string{
		"--config", filepath.Join(e.dir, "missing.yaml"),
		"--store", e.store,
		"--today", e.today,
	}, args...)
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(e.t, ExitSuccess, code, "args %v: stderr %s", args, errOut)
	return out
}

func (e *cliEnv) seed() {
	e.mustRun("add-habit", "read")
	e.mustRun("add-habit", "walk")
	e.mustRun("add-habit", "code")
	e.mustRun("check-in", "read", "--date", "2025-01-03")
	e.mustRun("check-in", "read", "--date", "2025-01-04")
	e.mustRun("check-in", "read")
	e.mustRun("add-item", "card1", "--date", "2025-01-01")
	e.mustRun("add-item", "card2")
}

func TestEndToEnd_StreakAndMilestone(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")
	env.mustRun("check-in", "read", "--date", "2025-01-03")
	env.mustRun("check-in", "read", "--date", "2025-01-04")
	out := env.mustRun("check-in", "read")
	assert.Equal(t, "Checked in read on 2025-01-05 (streak 3)\nMilestone reached: 3 days\n", out)

	out = env.mustRun("check-in", "read")
	assert.Equal(t, "read already checked in on 2025-01-05 (streak 3)\n", out)

	assert.Equal(t, "3\n", env.mustRun("streak", "read"))

	env.today = "2025-01-07"
	assert.Equal(t, "0\n", env.mustRun("streak", "read"))
}

func TestEndToEnd_Reviews(t *testing.T) {
	env := newCLIEnv(t, "2025-02-01")
	out := env.mustRun("add-item", "card1")
	assert.Equal(t, "Added item card1 (due 2025-02-02)\n", out)

	env.today = "2025-02-02"
	out = env.mustRun("grade", "card1", "4")
	assert.Equal(t, "Graded card1: next review 2025-02-08 (interval 6 days, ease 2.50)\n", out)

	env.today = "2025-02-08"
	out = env.mustRun("grade", "card1", "2")
	assert.Equal(t, "Graded card1: next review 2025-02-09 (interval 1 days, ease 2.18)\n", out)

	out = env.mustRun("item", "card1")
	assert.Contains(t, out, "Reviews:        2\n")
	assert.Contains(t, out, "Last reviewed:  2025-02-08\n")
}

func TestAddItem_GeneratesID(t *testing.T) {
	env := newCLIEnv(t, "2025-02-01")
	out := env.mustRun("--format", "json", "add-item")

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.ID, 36)
}

func TestCheckIn_JSON(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")
	out := env.mustRun("--format", "json", "check-in", "read")
	assert.JSONEq(t, `{"status":"ok","data":{"habit":"read","date":"2025-01-05","status":"recorded","streak":1,"new_milestones":[]}}`, out)
}

func TestExitCodes(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")
	env.mustRun("add-item", "c")

	_, stderr, code := env.run("streak", "nope")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "Error [UNKNOWN_HABIT]")

	_, _, code = env.run("add-habit", "read")
	assert.Equal(t, ExitFailure, code)

	_, stderr, code = env.run("grade", "c", "x")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "INVALID_QUALITY")

	_, _, code = env.run("grade", "c", "6")
	assert.Equal(t, ExitFailure, code)

	_, _, code = env.run("check-in", "read", "--date", "2025-01-06")
	assert.Equal(t, ExitFailure, code)

	_, _, code = env.run("add-habit")
	assert.Equal(t, ExitCommandError, code, "usage error")

	_, _, code = env.run("check-in", "read", "--date", "tomorrow")
	assert.Equal(t, ExitCommandError, code)

	_, _, code = env.run("--format", "yaml", "summary")
	assert.Equal(t, ExitCommandError, code)
}

func TestExitCode_StoreBusy(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	held, err := store.OpenFile(env.store, nil)
	require.NoError(t, err)
	defer held.Close()

	_, stderr, code := env.run("add-habit", "read")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "STORE_BUSY")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errs.New(errs.UnknownItem, "item", "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(errs.New(errs.CorruptStore, "path", "x")))
	assert.Equal(t, ExitInternal, GetExitCode(errs.New(errs.ReentrantCall, "operation", "x")))
	assert.Equal(t, 7, GetExitCode(NewExitError(7, "custom")))
}

func TestErrorJSON(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	out, _, code := env.run("--format", "json", "habit", "nope")
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_HABIT", resp.Error.Code)
}

func TestCorruptStoreAndReset(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	require.NoError(t, os.WriteFile(env.store, []byte("{not json"), 0o600))

	_, stderr, code := env.run("list-due")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "CORRUPT_STORE")

	_, _, code = env.run("reset")
	assert.Equal(t, ExitCommandError, code, "reset needs --backup")

	out := env.mustRun("reset", "--backup")
	assert.Equal(t, "Backed up to "+env.store+".bak\n", out)
	assert.FileExists(t, env.store+".bak")

	assert.Equal(t, "Nothing due on 2025-01-05\n", env.mustRun("list-due"))
}

func TestImportExport(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	csvPath := filepath.Join(env.dir, "in.csv")
	doc := "kind,id,date\nhabit,read,2025-01-04\nhabit,read,2025-01-05\nitem,card1\nbogus,x\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(doc), 0o600))

	out := env.mustRun("import", csvPath)
	assert.Contains(t, out, "Processed 4 rows: 1 habits, 1 items, 2 check-ins added, 0 skipped\n")
	assert.Contains(t, out, "Row 5:")
	assert.Equal(t, "2\n", env.mustRun("streak", "read"))

	xlsx := filepath.Join(env.dir, "out.xlsx")
	out = env.mustRun("export", xlsx)
	assert.Equal(t, "Exported 1 habits and 1 review items to "+xlsx+"\n", out)
	assert.FileExists(t, xlsx)
}

func TestRemindOnce(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")
	out := env.mustRun("remind", "--once")
	assert.Equal(t, "2025-01-05: 1 habit due (read)\n", out)

	env.mustRun("check-in", "read")
	assert.Empty(t, env.mustRun("remind", "--once"))
}

func TestRemoveCommands(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")
	env.mustRun("add-item", "c")
	env.mustRun("remove-habit", "read")
	env.mustRun("remove-item", "c")

	_, _, code := env.run("habit", "read")
	assert.Equal(t, ExitFailure, code)
	_, _, code = env.run("item", "c")
	assert.Equal(t, ExitFailure, code)
}

func TestGolden_ListDue(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.seed()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_due", []byte(env.mustRun("list-due")))
}

func TestGolden_Summary(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.seed()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary", []byte(env.mustRun("summary")))
}

func TestGolden_Habit(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.seed()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "habit", []byte(env.mustRun("habit", "read")))
}

func TestRemind_LogNotifier(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	env.mustRun("add-habit", "read")

	out, stderr, code := env.run("remind", "--once", "--notify", "log")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Empty(t, out)
	assert.Contains(t, stderr, `"msg":"reminder"`)
	assert.Contains(t, stderr, `"habits":["read"]`)

	_, _, code = env.run("remind", "--once", "--notify", "email")
	assert.Equal(t, ExitCommandError, code)
}

func TestConfigInit(t *testing.T) {
	env := newCLIEnv(t, "2025-01-05")
	path := filepath.Join(env.dir, "missing.yaml")

	out := env.mustRun("config", "init")
	assert.Equal(t, "Wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, env.store, cfg.Store.Path)
	assert.Equal(t, []int{3, 7, 30}, cfg.Milestones)

	_, _, code := env.run("config", "init")
	assert.Equal(t, ExitCommandError, code, "existing file is kept")
	env.mustRun("config", "init", "--force")
}
