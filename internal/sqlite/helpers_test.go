package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// person is the record type most tests persist.
type person struct {
	name    string
	age     int64
	address *string
	score   float64
	avatar  []byte
}

var personSchema = &types.Schema{
	Table: "Person",
	Declared: []types.Property{
		types.Column("name", types.TypeText),
		types.Column("age", types.TypeInteger),
		types.Column("address", types.TypeText),
		types.Column("score", types.TypeReal),
		types.Column("avatar", types.TypeBlob),
	},
	Factory: func(row types.Row) (types.Record, bool) {
		name, ok := row.String("name")
		if !ok {
			return nil, false
		}
		p := &person{name: name}
		p.age, _ = row.Int("age")
		if addr, ok := row.String("address"); ok {
			p.address = &addr
		}
		p.score, _ = row.Float("score")
		p.avatar, _ = row.Bytes("avatar")
		return p, true
	},
}

func (p *person) Descriptor() types.Descriptor { return personSchema }

func (p *person) Properties() []types.Property {
	return []types.Property{
		types.Text("name", p.name),
		types.Integer("age", p.age),
		types.TextPtr("address", p.address),
		types.Real("score", p.score),
		types.Blob("avatar", p.avatar),
	}
}

// rawRecord persists arbitrary properties into a given schema.
type rawRecord struct {
	schema types.Descriptor
	props  []types.Property
}

func (r rawRecord) Descriptor() types.Descriptor { return r.schema }
func (r rawRecord) Properties() []types.Property { return r.props }

func strPtr(s string) *string { return &s }

// setupRegistry returns a registry over a fresh data directory with
// completions delivered inline.
func setupRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	return setupRegistryConfig(t, types.Config{DataDir: t.TempDir()}, opts...)
}

func setupRegistryConfig(t *testing.T, cfg types.Config, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithDispatcher(Inline)}, opts...)
	r, err := NewRegistry(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

// await receives one value from ch. On timeout it marks the test failed and
// returns the zero value; it does not stop the goroutine, so it is safe to
// call from the writers that concurrency tests start.
func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Error("timed out waiting for completion")
		var zero T
		return zero
	}
}

// selectPeople runs a select and returns the persons.
func selectPeople(t *testing.T, r *Registry, cond types.Condition) []*person {
	t.Helper()
	records := await(t, SelectAsync(r, personSchema, cond))
	require.NotNil(t, records)
	return Collect[*person](records)
}

// liveColumns lists the columns of table as the engine reports them.
func liveColumns(t *testing.T, r *Registry, table string) []string {
	t.Helper()
	h := r.handle(table)
	require.NotNil(t, h)
	var cols []string
	var err error
	h.run(func(c *conn) { cols, err = c.columns(table) })
	require.NoError(t, err)
	return cols
}
