package main

import (
	"github.com/cankit/ftcan/pkg/cli"
)

//go-build: CGO_ENABLED=0

func main() {
	cli.Main()
}
