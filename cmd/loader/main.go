package main

import (
	"github.com/thirdweb-dev/offline-replay/cmd"
)

func main() {
	cmd.Execute()
}
