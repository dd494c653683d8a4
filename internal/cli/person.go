package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/dbstack/pkg/sqlite"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

// ErrNoRows guards update and delete from touching every row by accident.
var ErrNoRows = errors.New("refusing to modify every row without --all")

func newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage demo Person records",
	}
	cmd.AddCommand(newPersonAddCmd())
	cmd.AddCommand(newPersonListCmd())
	cmd.AddCommand(newPersonUpdateCmd())
	cmd.AddCommand(newPersonDeleteCmd())
	cmd.AddCommand(newPersonSeedCmd())
	cmd.AddCommand(newPersonExportCmd())
	cmd.AddCommand(newPersonImportCmd())
	return cmd
}

// personFields are the settable Person columns.
type personFields struct {
	name    string
	age     int64
	address string
	phone   string
}

func (f *personFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "person name")
	cmd.Flags().Int64Var(&f.age, "age", 0, "person age")
	cmd.Flags().StringVar(&f.address, "address", "", "postal address")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
}

// changed returns a property for every field flag given on the command line.
func (f *personFields) changed(cmd *cobra.Command) []types.Property {
	var props []types.Property
	if cmd.Flags().Changed("name") {
		props = append(props, types.Text("name", f.name))
	}
	if cmd.Flags().Changed("age") {
		props = append(props, types.Integer("age", f.age))
	}
	if cmd.Flags().Changed("address") {
		props = append(props, types.Text("address", f.address))
	}
	if cmd.Flags().Changed("phone") {
		props = append(props, types.Text("phone", f.phone))
	}
	return props
}

func newPersonAddCmd() *cobra.Command {
	var fields personFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a person",
		Example: `  dbstack person add --name Ann --age 30
  dbstack person add --name Bob --age 49 --phone 555-0100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &Person{Name: fields.name, Age: fields.age}
			if cmd.Flags().Changed("address") {
				p.Address = &fields.address
			}
			if cmd.Flags().Changed("phone") {
				p.Phone = &fields.phone
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			if !<-sqlite.InsertAsync(s.store, p) {
				return fmt.Errorf("insert %s failed", p.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", p.Name)
			return nil
		},
	}
	fields.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPersonListCmd() *cobra.Command {
	var filter filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons matching the filters",
		Example: `  dbstack person list
  dbstack person list --where age>=30 --sort name --limit 10
  dbstack person list --any --where name^=A --where age=49 --json`,
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

			people := sqlite.Collect[*Person](<-sqlite.SelectAsync(s.store, personSchema, cond))
			if flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), people)
			}
			printPersonTable(cmd.OutOrStdout(), people)
			return nil
		},
	}
	filter.register(cmd, true)
	return cmd
}

func newPersonUpdateCmd() *cobra.Command {
	var (
		fields personFields
		filter filterFlags
		all    bool
	)
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Set fields on the persons matching the filters",
		Example: `  dbstack person update --where name=Bob --age 50`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props := fields.changed(cmd)
			if len(props) == 0 {
				return fmt.Errorf("nothing to update: give at least one of --name, --age, --address, --phone")
			}
			cond, err := filter.condition()
			if err != nil {
				return err
			}
			if cond.Empty() && !all {
				return ErrNoRows
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			if !<-sqlite.UpdateAsync(s.store, personPatch{props: props}, cond) {
				return fmt.Errorf("update failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated")
			return nil
		},
	}
	fields.register(cmd)
	filter.register(cmd, false)
	cmd.Flags().BoolVar(&all, "all", false, "allow updating every row when no --where is given")
	return cmd
}

func newPersonDeleteCmd() *cobra.Command {
	var (
		filter filterFlags
		all    bool
	)
	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete the persons matching the filters",
		Example: `  dbstack person delete --where name=Bob`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := filter.condition()
			if err != nil {
				return err
			}
			if cond.Empty() && !all {
				return ErrNoRows
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			if !<-sqlite.DeleteAsync(s.store, personTable, cond) {
				return fmt.Errorf("delete failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		},
	}
	filter.register(cmd, false)
	cmd.Flags().BoolVar(&all, "all", false, "allow deleting every row when no --where is given")
	return cmd
}

// seedNames are cycled through by the seed command.
var seedNames = []string{"Ann", "Bob", "Cid", "Dee", "Eve", "Fay", "Gus", "Hal"}

func newPersonSeedCmd() *cobra.Command {
	var (
		count   int
		workers int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated persons concurrently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.close()

			if err := seedPeople(s.store, count, workers); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d person(s)\n", count)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of persons to insert")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent submitters")
	return cmd
}

// seedPeople inserts count generated persons from up to workers goroutines.
func seedPeople(store types.Store, count, workers int) error {
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < count; i++ {
		g.Go(func() error {
			p := &Person{
				Name: fmt.Sprintf("%s-%d", seedNames[i%len(seedNames)], i),
				Age:  int64(18 + i%60),
			}
			if !<-sqlite.InsertAsync(store, p) {
				return fmt.Errorf("insert %s failed", p.Name)
			}
			return nil
		})
	}
	return g.Wait()
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printPersonTable prints persons in a human-readable table format.
func printPersonTable(w io.Writer, people []*Person) {
	if len(people) == 0 {
		fmt.Fprintln(w, "No persons found.")
		return
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tAGE\tADDRESS\tPHONE")
	fmt.Fprintln(tw, "----\t---\t-------\t-----")
	for _, p := range people {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Name, p.Age, deref(p.Address), deref(p.Phone))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(w, "Total: %d person(s)\n", len(people))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
