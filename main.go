// The main package for the rentafic executable.
package main

import (
	"github.com/fic-tools/rentafic-bot/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
