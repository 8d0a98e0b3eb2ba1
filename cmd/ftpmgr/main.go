package main

import (
	"os"

	"github.com/hnrobert/ftpmgr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
