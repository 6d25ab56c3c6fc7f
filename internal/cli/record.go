package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgate/internal/record"
	"github.com/roach88/rowgate/internal/registry"
)

// recordFunc runs one operation on a freshly built record.
type recordFunc func(ctx context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition) error

// withRecord opens the environment, builds an empty record of typeName and
// hands it to fn. The environment is closed when fn returns.
func withRecord(cmd *cobra.Command, opts *RootOptions, typeName string, fn recordFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts, cmd)

	e, err := openEnv(ctx, opts, f)
	if err != nil {
		return err
	}
	defer e.Close()

	rec, def, err := e.newRecord(ctx, f, typeName)
	if err != nil {
		return err
	}
	return fn(ctx, f, rec, def)
}

// loadRecord parses arg as a key of rec and loads that row.
func loadRecord(ctx context.Context, f *OutputFormatter, rec *record.Record, op, arg string) (record.Key, error) {
	key, err := parseKey(rec, arg)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeArgs, "invalid key", err)
	}
	ok, err := rec.Load(ctx, key, true)
	if err != nil {
		return nil, recordFailure(f, op, err)
	}
	if !ok {
		return nil, softFailure(f, op, rec)
	}
	return key, nil
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <type>",
		Short: "Show the table behind a record type",
		Long: `Show the table, key columns, columns and capabilities of a record type.

Capabilities follow from reserved columns: ordering, checkout
(checked_out and checked_out_time), hits and published.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], runDescribe)
		},
	}
}

func runDescribe(_ context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition) error {
	desc := rec.Descriptor()

	columns := make([]string, len(desc.Columns))
	for i, col := range desc.Columns {
		columns[i] = col.Name
		if col.Type != "" {
			columns[i] += " " + col.Type
		}
	}

	capabilities := []string{}
	for _, c := range []struct {
		name string
		on   bool
	}{
		{"ordering", desc.HasOrdering},
		{"checkout", desc.HasCheckout},
		{"hits", desc.HasHits},
		{"published", desc.HasPublished},
	} {
		if c.on {
			capabilities = append(capabilities, c.name)
		}
	}

	data := map[string]any{
		"type":           def.Name,
		"table":          desc.Table,
		"keys":           desc.Keys,
		"auto_increment": desc.AutoIncrement,
		"columns":        columns,
		"capabilities":   capabilities,
	}
	if def.OrderingFilter != "" {
		data["ordering_filter"] = def.OrderingFilter
	}
	return f.Success(data)
}

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Hit bool
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <type> <key>",
		Short: "Load a row and print its columns",
		Long: `Load the row identified by key and print its columns.

Composite keys are joined with "|" in key order.

Example:
  rowgate get content 42
  rowgate get pairs '1|2' --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				if _, err := loadRecord(ctx, f, rec, "get", args[1]); err != nil {
					return err
				}
				if opts.Hit {
					if _, err := rec.Hit(ctx, nil); err != nil {
						return recordFailure(f, "hit", err)
					}
				}
				return f.Success(rec.Fields())
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Hit, "hit", false, "increment the hit counter after loading")

	return cmd
}

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Set    []string
	Ignore []string
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <type>",
		Short: "Insert or update a row",
		Long: `Bind column values, store the row and check it back in.

When every key column is given the existing row is loaded and updated,
otherwise a new row is inserted. New rows of ordered tables are appended
after the last row of their ordering group, and the group is renumbered.

Example:
  rowgate save content --set title=Hello --set catid=3
  rowgate save content --set id=42 --set title=Renamed`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition) error {
				return runSave(ctx, f, rec, def, opts)
			})
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "column value as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Ignore, "ignore", nil, "column to leave untouched (repeatable)")

	return cmd
}

func runSave(ctx context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition, opts *SaveOptions) error {
	values, err := parseAssignments(rec, opts.Set)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeArgs, "invalid --set", err)
	}

	key := make(record.Key)
	for _, name := range rec.KeyNames() {
		if v, ok := values[name]; ok {
			key[name] = v
		}
	}

	if len(key) == len(rec.KeyNames()) {
		ok, err := rec.Load(ctx, key, true)
		if err != nil {
			return recordFailure(f, "save", err)
		}
		if !ok {
			return softFailure(f, "save", rec)
		}
	} else if rec.Descriptor().HasOrdering {
		if _, set := values["ordering"]; !set {
			filter := orderingGroup(def, values)
			next, err := rec.GetNextOrder(ctx, filter)
			if err != nil {
				return recordFailure(f, "save", err)
			}
			values["ordering"] = next
		}
	}

	ok, err := rec.Save(ctx, values, def.OrderingFilter, opts.Ignore...)
	if err != nil {
		return recordFailure(f, "save", err)
	}
	if !ok {
		return softFailure(f, "save", rec)
	}
	f.VerboseLog("Saved %s %v", def.Name, rec.Fields())
	return f.Success(rec.Fields())
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <type> <key>",
		Short:         "Delete a row",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				key, err := parseKey(rec, args[1])
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeArgs, "invalid key", err)
				}
				ok, err := rec.Delete(ctx, key)
				if err != nil {
					return recordFailure(f, "delete", err)
				}
				if !ok {
					return softFailure(f, "delete", rec)
				}
				return f.Success(map[string]any{"table": rec.Table(), "deleted": args[1]})
			})
		},
	}
}
