package main

import (
	"os"

	"hradmin/internal/app/cli"
)

func main() {
	os.Exit(cli.Execute())
}
