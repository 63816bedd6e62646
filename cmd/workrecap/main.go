// Command workrecap fetches, normalizes, and summarizes a user's GitHub
// activity into a hierarchy of Markdown work logs, either from the CLI or
// from the HTTP job API exposed by "serve".
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
