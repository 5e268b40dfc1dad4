package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/openag/openag-go/pkg/errors"
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger prints progress lines to os.Stdout. Tests redirect it to check the output.
	infoLogger = log.New(os.Stdout, "", 0)
	logStdOut  = fmt.Printf
)

// wrapFatalln reports a failed step and exits.
// A step interrupted by a signal is reported as such, without the chain of context errors.
func wrapFatalln(msg string, err error) {
	switch {
	case err == nil:
		logFatalln(msg)
	case errors.Is(err, context.Canceled):
		logFatalf("%s: interrupted", msg)
	default:
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}
