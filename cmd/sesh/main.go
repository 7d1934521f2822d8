package main

import (
	"os"

	"github.com/willothy/sesh/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
