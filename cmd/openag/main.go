// Copyright © 2018 One Concern

package main

import (
	"github.com/openag/openag-go/cmd/openag/cmd"
)

func main() {
	cmd.Execute()
}
