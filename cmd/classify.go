package cmd

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/huangsam/flowtrack/core"
	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/internal/outwriter"
	"github.com/huangsam/flowtrack/schema"
	"github.com/spf13/cobra"
)

// classifyCmd classifies URLs from arguments or stdin.
var classifyCmd = &cobra.Command{
	Use:   "classify [url...]",
	Short: "Classify URLs into work, communication, leisure or unknown",
	Long: `Classify URLs with the same domain rules the tracker uses.

URLs are read from the arguments, or one per line from stdin when none are given.

Examples:
  flowtrack classify https://github.com/golang/go https://www.youtube.com/
  cat urls.txt | flowtrack classify --output csv`,
	PreRunE: configOnlySetup,
	Run: func(_ *cobra.Command, args []string) {
		urls := args
		if len(urls) == 0 {
			var err error
			if urls, err = readLines(os.Stdin); err != nil {
				contract.LogFatal("Error reading URLs", err)
			}
		}
		if err := outwriter.NewOutWriter().WriteClassifications(classifyAll(urls), cfg); err != nil {
			contract.LogFatal("Error writing classifications", err)
		}
	},
}

// classifyAll classifies each URL in order.
func classifyAll(urls []string) []schema.Classification {
	results := make([]schema.Classification, 0, len(urls))
	for _, raw := range urls {
		host, _ := core.Hostname(raw)
		results = append(results, schema.Classification{
			URL:      raw,
			Hostname: host,
			Category: core.ClassifyHost(host),
		})
	}
	return results
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
