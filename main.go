// The main package for the rankwatch executable.
package main

import (
	"github.com/rankwatch/rankwatch/cmd"
)

func main() {
	cmd.Execute()
}
