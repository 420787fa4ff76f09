package cli

import (
	"fmt"

	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/core"
	"github.com/spf13/cobra"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Brand  string
	Search string
	Deals  bool
	Where  string
	JSON   bool
}

func newListCommand(root *rootOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		Long: `List catalog items, optionally filtered.

--where takes a JavaScript expression evaluated per item, for example:
  arttools list --where 'item.price < 15 && item.reviews.length > 0'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Brand, "brand", "b", "", "Only items of this brand")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Only items whose name contains this text")
	cmd.Flags().BoolVar(&opts.Deals, "deals", false, "Only items with a limited-time deal")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "JavaScript filter expression over item")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, root *rootOptions, opts *ListOptions) error {
	a, err := root.session(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Catalog(cmd.Context())
	if err != nil {
		return err
	}

	query := catalog.Query{Brand: opts.Brand, Search: opts.Search, Deals: opts.Deals}
	if opts.Where != "" {
		query.Where, err = a.Compile(opts.Where)
		if err != nil {
			return fmt.Errorf("invalid --where: %w", err)
		}
	}

	items, err = query.Apply(items)
	if err != nil {
		return fmt.Errorf("filter failed: %w", err)
	}

	if opts.JSON {
		return outputJSON(cmd, items)
	}
	printItems(cmd.OutOrStdout(), items, a.Favorites())
	return nil
}

func newShowCommand(root *rootOptions) *cobra.Command {
	var minRating int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a catalog item with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.session(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			it, err := catalog.Find(items, core.ParseID(args[0]))
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			it.Reviews = catalog.FilterReviews(it.Reviews, minRating)

			if asJSON {
				return outputJSON(cmd, it)
			}
			printItem(cmd.OutOrStdout(), it, a.Favorites().Contains(it.ID))
			return nil
		},
	}

	cmd.Flags().IntVar(&minRating, "min-rating", 0, "Only show reviews rated at least this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newBrandsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List the brands in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.session(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, brand := range catalog.Brands(items) {
				fmt.Fprintln(cmd.OutOrStdout(), brand)
			}
			return nil
		},
	}
}
