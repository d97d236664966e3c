package cli

import (
	"fmt"
	"strconv"

	"kudos-bot/errs"
	"kudos-bot/store"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// MemberOptions holds flags for the member commands.
type MemberOptions struct {
	*RootOptions
	Admin  bool
	Revoke bool
}

// NewMemberCommand creates the member command group.
func NewMemberCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MemberOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member directory",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a member",
		Long: `Register a member.

The first admin has to be created here:
  kudos-bot member add "Иван Петров" --admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts.RootOptions, func(db *gorm.DB) error {
				id, err := store.NewMembers(db).Register(cmd.Context(), args[0], opts.Admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added member %d\n", id)
				return nil
			})
		},
	}
	add.Flags().BoolVar(&opts.Admin, "admin", false, "grant admin rights")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(opts.RootOptions, func(db *gorm.DB) error {
				return listMembers(cmd, db)
			})
		},
	}

	promote := &cobra.Command{
		Use:   "promote <id>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errs.Wrapf(err, "member id %q", args[0])
			}
			return withDB(opts.RootOptions, func(db *gorm.DB) error {
				if err := store.NewMembers(db).SetAdmin(cmd.Context(), id, !opts.Revoke); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "member %d admin=%t\n", id, !opts.Revoke)
				return nil
			})
		},
	}
	promote.Flags().BoolVar(&opts.Revoke, "revoke", false, "revoke admin rights instead")

	cmd.AddCommand(add, list, promote)
	return cmd
}

func listMembers(cmd *cobra.Command, db *gorm.DB) error {
	ctx := cmd.Context()
	members, err := store.NewMembers(db).ListAll(ctx)
	if err != nil {
		return err
	}
	shop := store.NewShop(db, nil)

	out := cmd.OutOrStdout()
	for _, m := range members {
		bal, err := shop.Balance(ctx, m.ID)
		if err != nil {
			return err
		}
		role := ""
		if m.IsAdmin {
			role = " [admin]"
		}
		fmt.Fprintf(out, "%d\t%s%s\tbalance=%d\n", m.ID, m.Name, role, bal)
	}
	return nil
}

// withDB opens the configured database for the duration of fn.
func withDB(opts *RootOptions, fn func(db *gorm.DB) error) error {
	db, err := store.Open(opts.Config.DBPath)
	if err != nil {
		return err
	}
	defer store.Close(db)
	return fn(db)
}
