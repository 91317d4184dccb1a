// =============================================================================
// Negotiated Rate Filter - Main Entry Point
// =============================================================================
//
// USAGE:
//   ratefilter [flags]        filter a JSON Lines file of negotiated rates
//   ratefilter config         print the effective configuration
//   ratefilter version        display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : the record pipeline, sinks, config and logging
//   - pkg/           : stream helpers (compression, output digest)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ratefilter/cmd"
)

func main() {
	cmd.Execute()
}
