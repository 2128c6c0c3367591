package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/resumine/resumine/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	application, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resumine: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "resumine: %v\n", err)
		os.Exit(1)
	}
}
