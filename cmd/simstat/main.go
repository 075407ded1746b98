// Command simstat prints per-agent oracle usage for a running or finished
// simulation, read back from the Prometheus server scraping it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"simworld/pkg/metrics"
)

func main() {
	var promURL string
	var asJSON bool
	flag.StringVar(&promURL, "prometheus", "http://localhost:9090", "Prometheus server URL")
	flag.BoolVar(&asJSON, "json", false, "Print metrics as JSON")
	flag.Parse()

	agents := flag.Args()
	if len(agents) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: simstat [-prometheus URL] [-json] <agent name> [<agent name> ...]")
		os.Exit(1)
	}

	svc, err := metrics.NewQueryService(promURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, name := range agents {
		m, err := svc.GetAgentMetrics(ctx, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error querying %q: %v\n", name, err)
			os.Exit(1)
		}

		if asJSON {
			out, _ := json.MarshalIndent(m, "", "  ")
			fmt.Println(string(out))
			continue
		}
		fmt.Printf("%s\n", m.AgentID)
		fmt.Printf("  requests:         %d (%d errors)\n", m.Requests, m.Errors)
		fmt.Printf("  prompt chars:     %d\n", m.PromptChars)
		fmt.Printf("  completion chars: %d\n", m.CompletionChars)
		fmt.Printf("  avg latency:      %.2fs\n", m.AvgLatency)
	}
}
