package main

import (
	"context"
	"fmt"
	"os"

	"gitlab.com/tozd/go/errors"
)

// Exit status contract: 0 on full success, 1 for argument errors, 2 when
// any input failed to process.
func main() {
	cmd := newRootCmd()

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "subst: %v\n", err)
		if errors.Is(err, errProcessing) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
