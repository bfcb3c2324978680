package main

import (
	"log"

	"github.com/millwork-dev/millwork/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
