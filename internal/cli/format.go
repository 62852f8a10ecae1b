package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fpang/styleai/internal/wardrobe"
)

// maxDescriptionWidth truncates descriptions in the wardrobe listing.
const maxDescriptionWidth = 60

// FormatWardrobe writes one line per item: ID, category, and description.
func FormatWardrobe(w io.Writer, items []wardrobe.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your wardrobe is empty")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%-36s  %-9s  %s\n", it.ID, it.Category, truncate(it.Description, maxDescriptionWidth))
	}
	fmt.Fprintf(w, "\n%d item(s)\n", len(items))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
