package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/record"
	"github.com/roach88/rowgate/internal/registry"
	"github.com/roach88/rowgate/internal/schema"
)

// ActorOptions holds flags for commands acting on behalf of a user.
type ActorOptions struct {
	*RootOptions
	Actor int64
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout <type> <key>",
		Short: "Mark a row as being edited",
		Long: `Mark a row as being edited by an actor.

Fails with exit code 1 when another actor holds the row. With a session
backend configured, a holder without an active session does not block.

Example:
  rowgate checkout content 42 --actor 7`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				return runCheckout(ctx, f, rec, args[1], opts.Actor)
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Actor, "actor", 0, "id of the acting user (required)")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func runCheckout(ctx context.Context, f *OutputFormatter, rec *record.Record, arg string, actor int64) error {
	key, err := loadRecord(ctx, f, rec, "checkout", arg)
	if err != nil {
		return err
	}

	held, err := rec.IsCheckedOut(ctx, actor, nil)
	if err != nil {
		return recordFailure(f, "checkout", err)
	}
	if held {
		holder, _ := rec.Get(schema.ColumnCheckedOut)
		return f.Fail(ExitFailure, ErrCodeSoft,
			fmt.Sprintf("checkout failed: checked out by actor %v", holder), nil)
	}

	if _, err := rec.CheckOut(ctx, actor, key); err != nil {
		return recordFailure(f, "checkout", err)
	}
	return f.Success(rec.Fields())
}

// NewCheckinCommand creates the checkin command.
func NewCheckinCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "checkin <type> <key>",
		Short:         "Release a checked out row",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				key, err := loadRecord(ctx, f, rec, "checkin", args[1])
				if err != nil {
					return err
				}
				if _, err := rec.CheckIn(ctx, key); err != nil {
					return recordFailure(f, "checkin", err)
				}
				return f.Success(rec.Fields())
			})
		},
	}
}

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	Actor int64
	State int
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <type> <key>...",
		Short: "Set the published state of rows",
		Long: `Set the published state of one or more rows.

Rows checked out by an actor other than --actor are left unchanged. When
every row changed, all of them are checked in. When none changed the
command fails with exit code 1.

Example:
  rowgate publish content 3 4 5 --actor 7
  rowgate publish content 3 --state 0`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				return runPublish(ctx, f, rec, args[1:], opts)
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Actor, "actor", 0, "id of the acting user")
	cmd.Flags().IntVar(&opts.State, "state", 1, "published state to set")

	return cmd
}

func runPublish(ctx context.Context, f *OutputFormatter, rec *record.Record, args []string, opts *PublishOptions) error {
	keys := make([]record.Key, 0, len(args))
	for _, arg := range args {
		key, err := parseKey(rec, arg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeArgs, "invalid key", err)
		}
		keys = append(keys, key)
	}

	ok, err := rec.Publish(ctx, keys, opts.State, opts.Actor)
	if err != nil {
		return recordFailure(f, "publish", err)
	}
	if !ok {
		return softFailure(f, "publish", rec)
	}
	return f.Success(map[string]any{
		"table": rec.Table(),
		"state": opts.State,
		"keys":  args,
	})
}

// OrderingOptions holds flags for the reorder and move commands.
type OrderingOptions struct {
	*RootOptions
	Where []string
	Delta int
}

// NewReorderCommand creates the reorder command.
func NewReorderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reorder <type>",
		Short: "Renumber the ordering of rows",
		Long: `Renumber the rows matching --where to 1..N, keeping their relative order.
Rows with a negative ordering are left alone.

Example:
  rowgate reorder content --where catid=3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, _ registry.Definition) error {
				filter, err := parseFilter(rec, opts.Where)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeArgs, "invalid --where", err)
				}
				if _, err := rec.Reorder(ctx, filter); err != nil {
					return recordFailure(f, "reorder", err)
				}
				return f.Success(map[string]any{"table": rec.Table(), "where": opts.Where})
			})
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter as name=value (repeatable)")

	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move <type> <key>",
		Short: "Swap a row with its ordering neighbour",
		Long: `Swap the ordering of a row with the previous (--delta < 0) or next
(--delta > 0) row. Without --where, neighbours are limited to the row's
ordering group from the catalog.

Example:
  rowgate move content 42 --delta=-1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecord(cmd, rootOpts, args[0], func(ctx context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition) error {
				return runMove(ctx, f, rec, def, args[1], opts)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Delta, "delta", 0, "direction to move: negative is up, positive is down (required)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "limit neighbours to name=value (repeatable)")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func runMove(ctx context.Context, f *OutputFormatter, rec *record.Record, def registry.Definition, arg string, opts *OrderingOptions) error {
	if _, err := loadRecord(ctx, f, rec, "move", arg); err != nil {
		return err
	}

	filter, err := parseFilter(rec, opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeArgs, "invalid --where", err)
	}
	if filter == nil {
		filter = orderingGroup(def, rec.Fields())
	}

	if _, err := rec.Move(ctx, opts.Delta, filter); err != nil {
		return recordFailure(f, "move", err)
	}
	return f.Success(rec.Fields())
}

// orderingGroup limits ordering to the rows sharing values' value for the
// type's ordering filter column. It returns nil when the type has no
// filter or values lacks it.
func orderingGroup(def registry.Definition, values map[string]any) queryir.Predicate {
	if def.OrderingFilter == "" {
		return nil
	}
	v, ok := values[def.OrderingFilter]
	if !ok || v == nil {
		return nil
	}
	return queryir.Eq(def.OrderingFilter, v)
}
