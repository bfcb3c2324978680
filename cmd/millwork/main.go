package main

import (
	"github.com/millwork-dev/millwork/pkg/cli"
)

func main() {
	cli.Execute()
}
