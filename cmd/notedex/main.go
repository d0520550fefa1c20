package main

import (
	"os"

	"github.com/dgallion1/notedex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
