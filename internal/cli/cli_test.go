package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dbstack/pkg/dbstack"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// testEnv is an isolated pair of config and data directories.
type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	return &testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI in-process with the env's directories.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (e *testEnv) listJSON(t *testing.T, args ...string) []Person {
	t.Helper()
	out := e.mustRun(t, append([]string{"--json", "person", "list"}, args...)...)
	var people []Person
	require.NoError(t, json.Unmarshal([]byte(out), &people), out)
	return people
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "dbstack v"+dbstack.Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "init")
	assert.Contains(t, out, "initialized")

	_, err := os.Stat(filepath.Join(env.dataDir, "Person.sqlite"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.DriverModernc, cfg.Driver)
	assert.Equal(t, types.JournalWAL, cfg.JournalMode)

	// Idempotent: a second init keeps the existing config.
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte("driver: sqlite\nstrict_drop: true\n"), 0o644))
	env.mustRun(t, "init")
	data, err = os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "strict_drop: true")
}

func TestPersonLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")

	env.mustRun(t, "person", "add", "--name", "Ann", "--age", "30", "--address", "1 Main St")
	env.mustRun(t, "person", "add", "--name", "Bob", "--age", "49", "--phone", "555-0100")
	env.mustRun(t, "person", "add", "--name", "Cid", "--age", "49")

	people := env.listJSON(t, "--sort", "name")
	require.Len(t, people, 3)
	assert.Equal(t, "Ann", people[0].Name)
	require.NotNil(t, people[0].Address)
	assert.Equal(t, "1 Main St", *people[0].Address)
	assert.Nil(t, people[0].Phone)

	people = env.listJSON(t, "--where", "age=49", "--sort", "name:desc")
	require.Len(t, people, 2)
	assert.Equal(t, "Cid", people[0].Name)

	people = env.listJSON(t, "--any", "--where", "name^=A", "--where", "phone~0100", "--sort", "name")
	require.Len(t, people, 2)
	assert.Equal(t, []string{"Ann", "Bob"}, []string{people[0].Name, people[1].Name})

	people = env.listJSON(t, "--sort", "name", "--range", "1,1")
	require.Len(t, people, 1)
	assert.Equal(t, "Bob", people[0].Name)

	env.mustRun(t, "person", "update", "--where", "name=Bob", "--age", "50")
	people = env.listJSON(t, "--where", "name=Bob")
	require.Len(t, people, 1)
	assert.Equal(t, int64(50), people[0].Age)
	require.NotNil(t, people[0].Phone, "fields not given are left untouched")

	env.mustRun(t, "person", "delete", "--where", "age>=49")
	people = env.listJSON(t)
	require.Len(t, people, 1)
	assert.Equal(t, "Ann", people[0].Name)

	out := env.mustRun(t, "person", "list")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Total: 1 person(s)")
}

func TestPersonGuards(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")
	env.mustRun(t, "person", "add", "--name", "Ann")

	_, err := env.run(t, "person", "delete")
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = env.run(t, "person", "update", "--age", "1")
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = env.run(t, "person", "update", "--where", "name=Ann")
	assert.Error(t, err)

	_, err = env.run(t, "person", "add")
	assert.Error(t, err, "name is required")

	_, err = env.run(t, "person", "list", "--where", "age")
	assert.ErrorIs(t, err, ErrBadFilter)

	env.mustRun(t, "person", "delete", "--all")
	assert.Empty(t, env.listJSON(t))
}

func TestPersonSeed(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "person", "seed", "--count", "40", "--workers", "8")
	assert.Contains(t, out, "Seeded 40")
	assert.Len(t, env.listJSON(t), 40)
}

func TestSQLCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "sql", "--where", "age=49", "--sort", "age", "--limit", "5", "--any")
	assert.Equal(t, "SELECT * FROM Person where age = 49  order by age asc  limit 5 \n", out)

	out = env.mustRun(t, "sql", "--where", "name^=Jo", "--bind")
	assert.Equal(t, "SELECT * FROM Person where name like ? \n  $1 = 'Jo%'\n", out)

	out = env.mustRun(t, "--json", "sql", "--table", "Pet", "--where", "name=O'Neil")
	var got sqlOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SELECT * FROM Pet where name = 'O''Neil' ", got.Statement)

	_, err := env.run(t, "sql", "--table", "bad table")
	assert.ErrorIs(t, err, types.ErrInvalidIdentifier)

	_, err = env.run(t, "sql", "--where", "a b=1")
	assert.ErrorIs(t, err, types.ErrInvalidIdentifier)
}

func TestLoadSettings(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		s, err := loadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, types.DriverModernc, s.Store.Driver)
		assert.Equal(t, "warn", s.Log.Level)
		assert.False(t, s.Store.StrictDrop)
	})

	t.Run("file values", func(t *testing.T) {
		dir := t.TempDir()
		content := strings.Join([]string{
			"driver: sqlite3",
			"data_dir: /var/lib/dbstack",
			"journal_mode: DELETE",
			"busy_timeout_ms: 250",
			"strict_drop: true",
			"log:",
			"  level: debug",
			"  format: json",
			"  redact: true",
		}, "\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

		s, err := loadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, types.Config{
			Driver:        types.DriverMattn,
			DataDir:       "/var/lib/dbstack",
			JournalMode:   "DELETE",
			BusyTimeoutMS: 250,
			StrictDrop:    true,
		}, s.Store)
		assert.Equal(t, "debug", s.Log.Level)
		assert.Equal(t, "json", s.Log.Format)
		assert.True(t, s.Log.Redact)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: info\n"), 0o644))
		t.Setenv("DBSTACK_LOG_LEVEL", "error")

		s, err := loadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, "error", s.Log.Level)
	})

	t.Run("invalid driver", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("driver: postgres\n"), 0o644))
		_, err := loadSettings(dir)
		assert.ErrorIs(t, err, types.ErrDriverUnknown)
	})
}

func TestParseWhere(t *testing.T) {
	tests := []struct {
		expr     string
		wantKind types.FilterKind
		wantKey  string
		wantVal  any
	}{
		{"age=49", types.KindEqual, "age", int64(49)},
		{"age!=49", types.KindNotEqual, "age", int64(49)},
		{"age>1", types.KindGreaterThan, "age", int64(1)},
		{"age<1", types.KindLessThan, "age", int64(1)},
		{"age>=1", types.KindGreaterOrEqual, "age", int64(1)},
		{"score<=2.5", types.KindLessOrEqual, "score", 2.5},
		{"name=Ann", types.KindEqual, "name", "Ann"},
		{"name=a=b", types.KindEqual, "name", "a=b"},
		{"name^=Jo", types.KindLikePrefix, "name", "Jo"},
		{"name$=son", types.KindLikeSuffix, "name", "son"},
		{"name~oh", types.KindLikeContains, "name", "oh"},
		{"name!~x", types.KindNotLike, "name", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := parseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, f.Kind())
			assert.Equal(t, tt.wantKey, f.Key())
			assert.Equal(t, tt.wantVal, f.Value())
		})
	}

	for _, bad := range []string{"", "age", "=49", "age!49"} {
		_, err := parseWhere(bad)
		assert.ErrorIs(t, err, ErrBadFilter, bad)
	}
}

func TestParseSortAndRange(t *testing.T) {
	f, err := parseSort("age:DESC")
	require.NoError(t, err)
	assert.Equal(t, types.KindSortDesc, f.Kind())

	f, err = parseSort("name")
	require.NoError(t, err)
	assert.Equal(t, types.KindSortAsc, f.Kind())

	_, err = parseSort("name:sideways")
	assert.ErrorIs(t, err, ErrBadFilter)

	f, err = parseRange("10, 5")
	require.NoError(t, err)
	assert.Equal(t, " limit 10, 5 ", f.String())

	for _, bad := range []string{"10", "a,5", "1,-1"} {
		_, err := parseRange(bad)
		assert.ErrorIs(t, err, ErrBadFilter, bad)
	}
}

func TestPersonExportImport(t *testing.T) {
	src := newTestEnv(t)
	src.mustRun(t, "person", "add", "--name", "Ann", "--age", "30", "--phone", "555-0100")
	src.mustRun(t, "person", "add", "--name", "Bob", "--age", "49")
	src.mustRun(t, "person", "add", "--name", "Cid", "--age", "12")

	file := filepath.Join(t.TempDir(), "people.jsonl")
	out := src.mustRun(t, "person", "export", "--file", file, "--where", "age>=18")
	assert.Contains(t, out, "Exported 2 person(s)")

	extra := `{"name":"Dee","age":7}` + "\n" + "garbage\n" + `{"age":3}` + "\n"
	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(extra)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	dst := newTestEnv(t)
	out = dst.mustRun(t, "person", "import", "--file", file)
	assert.Contains(t, out, "Imported 3 person(s), skipped 2")

	people := dst.listJSON(t, "--sort", "name")
	require.Len(t, people, 3)
	assert.Equal(t, []string{"Ann", "Bob", "Dee"}, []string{people[0].Name, people[1].Name, people[2].Name})
	require.NotNil(t, people[0].Phone)
	assert.Equal(t, "555-0100", *people[0].Phone)
	assert.Nil(t, people[1].Phone)

	_, err = dst.run(t, "person", "import", "--file", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
