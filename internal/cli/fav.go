package cli

import (
	"fmt"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/favorites"
	"github.com/spf13/cobra"
)

func newFavCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorites"},
		Short:   "Manage favorites",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, root, func(a *app.App) error {
				items := a.Favorites().All()
				if asJSON {
					return outputJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet.")
					return nil
				}
				printItems(cmd.OutOrStdout(), items, a.Favorites())
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	toggleCmd := &cobra.Command{
		Use:   "toggle ID",
		Short: "Add a catalog item to favorites, or remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, root, func(a *app.App) error {
				ctx := cmd.Context()
				id := core.ParseID(args[0])

				// A favorite that left the catalog can still be toggled off.
				var it core.Item
				for _, fav := range a.Favorites().All() {
					if fav.ID.Equal(id) {
						it = fav
					}
				}
				if it.ID.IsZero() {
					items, err := a.Catalog(ctx)
					if err != nil {
						return err
					}
					if it, err = catalog.Find(items, id); err != nil {
						return fmt.Errorf("%w: %s", err, args[0])
					}
				}

				change, err := a.Favorites().Toggle(ctx, it)
				if err != nil {
					return err
				}
				if err := saved(cmd, change); err != nil {
					return err
				}

				verb := "Removed"
				if change.Added {
					verb = "Added"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, it.ArtName)
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove ID...",
		Short: "Remove favorites by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, root, func(a *app.App) error {
				ids := make([]core.ItemID, len(args))
				for i, arg := range args {
					ids[i] = core.ParseID(arg)
				}

				change, err := a.Favorites().RemoveMany(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				if err := saved(cmd, change); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorites\n", change.Removed)
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, root, func(a *app.App) error {
				change, err := a.Favorites().Clear(cmd.Context())
				if err != nil {
					return err
				}
				if err := saved(cmd, change); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorites\n", change.Removed)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, toggleCmd, removeCmd, clearCmd)
	return cmd
}

func withFavorites(cmd *cobra.Command, root *rootOptions, fn func(a *app.App) error) error {
	a, err := root.session(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// saved waits for the mutation to reach storage.
func saved(cmd *cobra.Command, change favorites.Change) error {
	if err := change.Wait(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}
