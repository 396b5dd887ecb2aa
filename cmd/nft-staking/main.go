package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/staking"
)

func main() {
	logrus.SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand(solana.NewWithLimiter)
	code := exitCode(os.Stderr, rootCmd.ExecuteContext(ctx))
	cancel()
	os.Exit(code)
}

// exitCode reports err to w and returns the process exit code for it.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var execErr *executionError
	if !errors.As(err, &execErr) {
		err = staking.NewConfigError(err)
	}

	kind := staking.Classify(err)
	fmt.Fprintf(w, "error (%s): %s\n", kind, err)

	if kind == staking.KindConfig {
		return 2
	}
	return 1
}
