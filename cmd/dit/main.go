package main

import (
	"os"

	"github.com/ditrack/dit/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
