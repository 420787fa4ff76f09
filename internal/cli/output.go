package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/catalog"
	"github.com/artpar/arttools/internal/core"
	"github.com/artpar/arttools/internal/tui"
	"github.com/spf13/cobra"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printItems(out io.Writer, items []core.Item, fav app.Favorites) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items match.")
		return
	}
	for _, it := range items {
		heart := " "
		if fav.Contains(it.ID) {
			heart = "♥"
		}
		fmt.Fprintf(out, "%s %s %s %s %s\n",
			heart,
			tui.PadRight(it.ID.String(), 6),
			tui.PadRight(it.ArtName, 32),
			tui.PadRight(it.Brand, 18),
			priceText(it),
		)
	}
}

func printItem(out io.Writer, it core.Item, favorite bool) {
	title := it.ArtName
	if favorite {
		title += " ♥"
	}
	fmt.Fprintln(out, title)
	if it.Brand != "" {
		fmt.Fprintf(out, "Brand: %s\n", it.Brand)
	}
	fmt.Fprintf(out, "Price: %s\n", priceText(it))
	if it.GlassSurface {
		fmt.Fprintln(out, "Glass surface")
	}
	if it.Image != "" {
		fmt.Fprintf(out, "Image: %s\n", it.Image)
	}
	if it.Description != "" {
		fmt.Fprintf(out, "\n%s\n", it.Description)
	}

	fmt.Fprintf(out, "\nReviews (%d, avg %.1f):\n", len(it.Reviews), catalog.AverageRating(it.Reviews))
	for _, r := range it.Reviews {
		line := fmt.Sprintf("  %d/5 %s", r.Rating, r.Comment)
		if r.Author != "" {
			line += " (" + r.Author + ")"
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

func priceText(it core.Item) string {
	if !it.HasDeal() {
		return fmt.Sprintf("$%.2f", it.Price)
	}
	return fmt.Sprintf("$%.2f (-%d%%, was $%.2f)", it.DiscountedPrice(), it.DealPercent(), it.Price)
}
