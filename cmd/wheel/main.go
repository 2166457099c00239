// Command wheel prints the eight solar events of the wheel of the year.
//
// Usage:
//
//	wheel [flags] [year]
//
// With no year the current year is used. Times are shown at the local UTC
// offset unless --utc-offset or UTC_OFFSET says otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/zapponejosh/wheel/internal/config"
)

func main() {
	ctx := context.Background()

	// Optional .env for UTC_OFFSET, CROSS_QUARTER_RULE and friends.
	config.LoadDotEnv()

	if err := run(ctx, os.Args, os.Getenv, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
