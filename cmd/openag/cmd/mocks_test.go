package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openag/openag-go/pkg/config"
	"github.com/openag/openag-go/pkg/couch"
	"github.com/openag/openag-go/pkg/couch/memcouch"
	"github.com/openag/openag-go/pkg/vcs"
)

type ExitMocks struct {
	mock.Mock
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	fmt.Printf(format+"\n", v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	fmt.Println(v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.exitStatuses)
}

// testCLI runs commands against an in-memory server and a temporary config file
type testCLI struct {
	t          *testing.T
	server     *memcouch.Server
	exits      *ExitMocks
	out        *bytes.Buffer
	configFile string
	clones     []string
	cloneFunc  vcs.ClonerFunc
}

func setupCLI(t *testing.T) *testCLI {
	c := &testCLI{
		t:          t,
		server:     memcouch.New(),
		exits:      &ExitMocks{},
		out:        &bytes.Buffer{},
		configFile: filepath.Join(t.TempDir(), "config.yaml"),
	}
	t.Setenv(config.EnvConfigLocation, c.configFile)

	saved := struct {
		logFatalln  func(...interface{})
		logFatalf   func(string, ...interface{})
		osExit      func(int)
		infoLogger  *log.Logger
		logStdOut   func(string, ...interface{}) (int, error)
		stdin       io.Reader
		newServer   func(string, *zap.Logger) (couch.Server, error)
		newCloner   func(*zap.Logger) vcs.Cloner
		configPause time.Duration
	}{logFatalln, logFatalf, osExit, infoLogger, logStdOut, stdin, newServer, newCloner, configPause}
	t.Cleanup(func() {
		logFatalln, logFatalf, osExit = saved.logFatalln, saved.logFatalf, saved.osExit
		infoLogger, logStdOut, stdin = saved.infoLogger, saved.logStdOut, saved.stdin
		newServer, newCloner = saved.newServer, saved.newCloner
		configPause = saved.configPause
	})

	logFatalln = c.exits.Fatalln
	logFatalf = c.exits.Fatalf
	osExit = c.exits.Exit
	infoLogger = log.New(c.out, "", 0)
	logStdOut = func(format string, args ...interface{}) (int, error) {
		return fmt.Fprintf(c.out, format, args...)
	}
	stdin = strings.NewReader("")
	newServer = func(_ string, _ *zap.Logger) (couch.Server, error) {
		return c.server, nil
	}
	newCloner = func(_ *zap.Logger) vcs.Cloner {
		return vcs.ClonerFunc(func(ctx context.Context, url, branch, dest string) error {
			c.clones = append(c.clones, url+"#"+branch)
			return c.cloneFunc(ctx, url, branch, dest)
		})
	}
	configPause = 0
	c.cloneFunc = func(_ context.Context, url, _, _ string) error {
		return fmt.Errorf("unexpected clone of %s", url)
	}

	return c
}

// run the command line, with every flag reset to its default value first
func (c *testCLI) run(args ...string) {
	c.t.Helper()
	require.NoError(c.t, c.execute(args...))
}

func (c *testCLI) execute(args ...string) error {
	resetFlags(rootCmd)
	c.out.Reset()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
