package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dbstack/pkg/sqlite"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// errNoName rejects imported lines without a name.
var errNoName = errors.New("person line has no name")

func newPersonExportCmd() *cobra.Command {
	var (
		filter filterFlags
		file   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write persons matching the filters to a JSONL file",
		Example: `  dbstack person export --file people.jsonl
  dbstack person export --file adults.jsonl --where age>=18 --sort name`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := filter.condition()
			if err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			n, err := sqlite.ExportJSONL(s.store, personSchema, cond, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d person(s) to %s\n", n, file)
			return nil
		},
	}
	filter.register(cmd, true)
	cmd.Flags().StringVar(&file, "file", "", "destination JSONL file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPersonImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Insert persons from a JSONL file",
		Example: `  dbstack person import --file people.jsonl`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			imported, skipped, err := sqlite.ImportJSONL(s.store, file, decodePerson)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d person(s), skipped %d\n", imported, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "source JSONL file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func decodePerson(line json.RawMessage) (types.Record, error) {
	var p Person
	if err := json.Unmarshal(line, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, errNoName
	}
	return &p, nil
}
