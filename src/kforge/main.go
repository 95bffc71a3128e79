// kforge plans Linux kernel builds: versions, patches, .config and the
// make command, from the command line or over HTTP.
package main

import (
	"github.com/bitswalk/kforge/src/kforge/core"
)

func main() {
	core.Execute()
}
