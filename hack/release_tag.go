//go:build ignore
// +build ignore

package main

import (
	"flag"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gotest.tools/v3/icmd"
)

const pkg = "github.com/openag/openag-go/cmd/openag/cmd"

var (
	versionRe = regexp.MustCompile(`^v\d+\.\d+\.\d+`)

	args struct {
		ldflags bool
	}
)

func main() {
	log.SetFlags(0)
	flag.BoolVar(&args.ldflags, "ldflags", false, "print the -ldflags setting the version variables of the openag binary")
	flag.Parse()

	version := getVersion()
	if !args.ldflags {
		fmt.Println(version)
		return
	}
	fmt.Printf("-X %s.Version=%s -X %s.BuildDate=%s -X %s.GitCommit=%s -X %s.GitState=%s\n",
		pkg, version,
		pkg, time.Now().UTC().Format(time.RFC3339),
		pkg, getCommit(),
		pkg, gitState(),
	)
}

// getVersion is the release tag of HEAD, or empty for unreleased builds
func getVersion() string {
	resTag := icmd.RunCommand("git", "describe", "--tags", "--exact-match", "HEAD")
	if resTag.ExitCode != 0 {
		return ""
	}
	tag := strings.TrimSpace(resTag.Stdout())
	if !versionRe.MatchString(tag) {
		return ""
	}
	return tag
}

func getCommit() string {
	resHash := icmd.RunCommand("git", "rev-parse", "HEAD")
	if resHash.ExitCode != 0 {
		log.Fatalf("cannot execute git rev-parse: %s", resHash.Stderr())
	}
	return strings.TrimSpace(resHash.Stdout())
}

func gitState() string {
	resStatus := icmd.RunCommand("git", "status", "--porcelain")
	if resStatus.ExitCode != 0 {
		log.Fatalf("cannot execute git status: %s", resStatus.Stderr())
	}
	if strings.TrimSpace(resStatus.Stdout()) != "" {
		return "dirty"
	}
	return "clean"
}
