package cmd

import (
	"runtime"

	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X", see hack/release_tag.go
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the openag binary
type VersionInfo struct {
	Version   string `json:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// NewVersionInfo from the build variables. Unreleased builds report "dev".
//
// A tagged build is assumed clean unless the working tree state says otherwise.
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if Version != "" {
		ver.Version = Version
		ver.GitState = "clean"
	}
	if GitState != "" {
		ver.GitState = GitState
	}
	return ver
}

func (v VersionInfo) String() string {
	table := uitable.New()
	table.Separator = " "
	table.AddRow("Version:", v.Version)
	table.AddRow("Build date:", v.BuildDate)
	table.AddRow("Commit:", v.GitCommit)
	table.AddRow("Working tree:", v.GitState)
	table.AddRow("Go:", v.GoVersion)
	table.AddRow("Platform:", v.Platform)
	return table.String() + "\n"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of openag",
	Long: `Prints the version of openag, as set when the binary was built:
	* Version: the release tag (git describe --tags), or dev
	* Build date
	* Commit: the git commit the binary was built from
	* Working tree: dirty when there were uncommitted changes during the build
	* Go toolchain and platform

Use --json for a machine readable output.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ver := NewVersionInfo()
		if !openagFlags.version.asJSON {
			logStdOut("%s", ver)
			return
		}
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(ver, "", "  ")
		if err != nil {
			wrapFatalln("encode version", err)
			return
		}
		logStdOut("%s\n", b)
	},
}

func init() {
	addVersionJSONFlag(versionCmd)
	rootCmd.AddCommand(versionCmd)
}
