// Command web runs the market insight HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/InitCore006/SeedSync-sub001/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
