package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aegisd/aegis-go/internal/infrastructure/cli"
)

func main() {
	ctx := context.Background()
	opts := cli.Options{ConfigPath: os.Getenv("AEGIS_CONFIG")}

	root, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
