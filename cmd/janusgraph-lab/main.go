package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/infobarbosa/janusgraph-lab/cmd/janusgraph-lab/internal"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			os.Exit(internal.ExitError)
		}
	}()

	c := newCLI(defaultDialer)
	if err := c.Execute(context.Background()); err != nil {
		os.Exit(internal.HandleError(c.root, err))
	}
}
