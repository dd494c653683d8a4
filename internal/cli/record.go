package cli

import (
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

const personTable = "Person"

// Person is the demo record managed by the person commands.
type Person struct {
	Name    string  `json:"name"`
	Age     int64   `json:"age"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

var personSchema = &types.Schema{
	Table: personTable,
	Declared: []types.Property{
		types.Column("name", types.TypeText),
		types.Column("age", types.TypeInteger),
		types.Column("address", types.TypeText),
		types.Column("phone", types.TypeText),
	},
	Factory: func(row types.Row) (types.Record, bool) {
		name, ok := row.String("name")
		if !ok {
			return nil, false
		}
		p := &Person{Name: name}
		p.Age, _ = row.Int("age")
		if v, ok := row.String("address"); ok {
			p.Address = &v
		}
		if v, ok := row.String("phone"); ok {
			p.Phone = &v
		}
		return p, true
	},
}

// Descriptor implements types.Record.
func (p *Person) Descriptor() types.Descriptor { return personSchema }

// Properties implements types.Record.
func (p *Person) Properties() []types.Property {
	return []types.Property{
		types.Text("name", p.Name),
		types.Integer("age", p.Age),
		types.TextPtr("address", p.Address),
		types.TextPtr("phone", p.Phone),
	}
}

// personPatch carries only the fields given on the command line, so that an
// update leaves the others untouched.
type personPatch struct {
	props []types.Property
}

func (p personPatch) Descriptor() types.Descriptor { return personSchema }
func (p personPatch) Properties() []types.Property { return p.props }
