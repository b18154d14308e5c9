package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func versionCmd(ctx *cli.Context) error {
	fmt.Printf("%s %s\n", appName, version)
	return nil
}
