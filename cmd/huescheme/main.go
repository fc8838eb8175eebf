// Command huescheme extracts theme palettes from images.
package main

import (
	"github.com/jmylchreest/huescheme/internal/cli"
)

func main() {
	cli.Execute()
}
