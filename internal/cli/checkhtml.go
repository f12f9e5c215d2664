package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ietf-tools/datatracker/internal/htmlcheck"
)

var checkHTMLErrorsOnly bool

var checkHTMLCmd = &cobra.Command{
	Use:   "checkhtml <file>...",
	Short: "Check HTML files for markup problems",
	Long: `Run the HTML checker used by the test client over files and print
its diagnostics, one per line, prefixed with the file name.

The command fails if any file has issues, or only error-level issues
with --errors-only.

Example:
  datatracker checkhtml page.html
  datatracker checkhtml --errors-only build/*.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckHTML,
}

func init() {
	checkHTMLCmd.Flags().BoolVar(&checkHTMLErrorsOnly, "errors-only", false, "ignore warnings")
	rootCmd.AddCommand(checkHTMLCmd)
}

func runCheckHTML(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	total := 0
	for _, name := range args {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		for _, issue := range htmlcheck.Check(data) {
			if checkHTMLErrorsOnly && issue.Level != htmlcheck.Error {
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", name, issue)
			total++
		}
	}

	if total > 0 {
		return fmt.Errorf("found %d issue(s) in %d file(s)", total, len(args))
	}
	return nil
}
