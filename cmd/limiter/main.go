// Command limiter is the command-line front end of the transfer gate.
package main

import (
	"fmt"
	"os"

	"github.com/CryptoUnit-blockchain/limiter/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
