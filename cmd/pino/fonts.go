package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// listFontsFunc runs fontconfig. Replaced in tests.
var listFontsFunc = func(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "fc-list", ":", "family").Output()
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List installed font families",
		Long: `List the font families fontconfig knows about. Any of them can be used
as frame.font_family in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := listFontsFunc(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to run fc-list: %w", err)
			}
			for _, family := range parseFontFamilies(out) {
				fmt.Fprintln(cmd.OutOrStdout(), family)
			}
			return nil
		},
	}
}

// parseFontFamilies turns fc-list output into a sorted, de-duplicated list.
// A line may name several families separated by commas.
func parseFontFamilies(out []byte) []string {
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		for _, family := range strings.Split(scanner.Text(), ",") {
			family = strings.TrimSpace(strings.ReplaceAll(family, `\-`, "-"))
			if family != "" {
				seen[family] = struct{}{}
			}
		}
	}

	families := make([]string, 0, len(seen))
	for family := range seen {
		families = append(families, family)
	}
	slices.SortFunc(families, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return families
}
