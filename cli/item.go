package cli

import (
	"fmt"
	"strconv"

	"kudos-bot/catalog"
	"kudos-bot/errs"
	"kudos-bot/model"
	"kudos-bot/store"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// ItemOptions holds flags for the item commands.
type ItemOptions struct {
	*RootOptions
	Stock int
}

// NewItemCommand creates the item command group.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit the shop catalog",
	}

	set := &cobra.Command{
		Use:   "set <key> <name> <price>",
		Short: "Create or replace a shop item",
		Long: `Create or replace a shop item. Past purchases keep the name and price
they were bought with.

Example:
  kudos-bot item set hoodie "Худи с логотипом" 15 --stock 5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.Atoi(args[2])
			if err != nil {
				return errs.Wrapf(err, "price %q", args[2])
			}
			item := model.ShopItem{Key: args[0], Name: args[1], Price: price}
			if opts.Stock > 0 {
				item.StockLimit = &opts.Stock
			}
			return withShop(opts.RootOptions, func(shop *store.Shop) error {
				if err := shop.UpsertItem(cmd.Context(), item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", item.Key)
				return nil
			})
		},
	}
	set.Flags().IntVar(&opts.Stock, "stock", 0, "stock limit, 0 for unlimited")

	rm := &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a shop item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withShop(opts.RootOptions, func(shop *store.Shop) error {
				removed, err := shop.RemoveItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return errs.Reject(errs.ErrNotFound, "item %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the catalog with remaining stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withShop(opts.RootOptions, func(shop *store.Shop) error {
				return listItems(cmd, shop)
			})
		},
	}

	cmd.AddCommand(set, rm, list)
	return cmd
}

func listItems(cmd *cobra.Command, shop *store.Shop) error {
	ctx := cmd.Context()
	items, err := shop.Catalog(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, it := range items {
		stock, err := shop.RemainingStock(ctx, it.Key)
		if err != nil {
			return err
		}
		left := "unlimited"
		if stock.Limited {
			left = fmt.Sprintf("%d left", stock.Remaining)
		}
		fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", it.Key, it.Name, it.Price, left)
	}
	return nil
}

// withShop opens the shop with the embedded defaults, so a fresh database is seeded first.
func withShop(opts *RootOptions, fn func(shop *store.Shop) error) error {
	defaults, err := catalog.Load()
	if err != nil {
		return err
	}
	return withDB(opts, func(db *gorm.DB) error {
		return fn(store.NewShop(db, defaults.Items))
	})
}
