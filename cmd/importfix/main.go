// # cmd/importfix/main.go
package main

import (
	"os"

	"importfix/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
