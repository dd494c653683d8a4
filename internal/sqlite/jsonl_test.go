package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// decodePerson reads one exported person line.
func decodePerson(line json.RawMessage) (types.Record, error) {
	var v struct {
		Name    *string `json:"name"`
		Age     int64   `json:"age"`
		Address *string `json:"address"`
		Score   float64 `json:"score"`
		Avatar  []byte  `json:"avatar"`
	}
	if err := json.Unmarshal(line, &v); err != nil {
		return nil, err
	}
	if v.Name == nil {
		return nil, assert.AnError
	}
	return &person{name: *v.Name, age: v.Age, address: v.Address, score: v.Score, avatar: v.Avatar}, nil
}

func TestJSONL_ExportImport(t *testing.T) {
	src := setupRegistry(t)
	require.NoError(t, src.Load(personSchema))
	ann := &person{name: "Ann", age: 30, address: strPtr("1 Main St"), score: 1.5, avatar: []byte{1, 2, 3}}
	bob := &person{name: "Bob", age: 49}
	require.True(t, await(t, InsertAsync(src, ann)))
	require.True(t, await(t, InsertAsync(src, bob)))

	path := filepath.Join(t.TempDir(), "export", "Person.jsonl")
	n, err := ExportJSONL(src, personSchema, types.All(types.SortAsc("name")), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"address":null`)

	dst := setupRegistry(t)
	require.NoError(t, dst.Load(personSchema))
	imported, skipped, err := ImportJSONL(dst, path, decodePerson)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 0, skipped)

	got := selectPeople(t, dst, types.All(types.SortAsc("name")))
	require.Len(t, got, 2)
	assert.Equal(t, ann, got[0])
	assert.Equal(t, bob, got[1])
}

func TestJSONL_ExportFiltered(t *testing.T) {
	r := setupRegistry(t)
	require.NoError(t, r.Load(personSchema))
	for _, name := range []string{"Ann", "Bob", "Cid"} {
		require.True(t, await(t, InsertAsync(r, &person{name: name})))
	}

	path := filepath.Join(t.TempDir(), "b.jsonl")
	n, err := ExportJSONL(r, personSchema, types.All(types.LikePrefix("name", "B")), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestJSONL_ExportUnregistered(t *testing.T) {
	r := setupRegistry(t)
	_, err := ExportJSONL(r, personSchema, types.Condition{}, filepath.Join(t.TempDir(), "x.jsonl"))
	assert.ErrorIs(t, err, types.ErrNotRegistered)
}

func TestJSONL_ImportSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := strings.Join([]string{
		`{"name":"Ann","age":30}`,
		`not json`,
		``,
		`{"age":5}`,
		`{"name":"Bob"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := setupRegistry(t)
	require.NoError(t, r.Load(personSchema))
	imported, skipped, err := ImportJSONL(r, path, decodePerson)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, skipped)
	assert.Len(t, selectPeople(t, r, types.Condition{}), 2)
}

func TestJSONL_ImportMissingFile(t *testing.T) {
	r := setupRegistry(t)
	_, _, err := ImportJSONL(r, filepath.Join(t.TempDir(), "missing.jsonl"), decodePerson)
	assert.Error(t, err)
}

func TestWriteJSONL_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":1}`)}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
