package main

import (
	"log"

	"github.com/tracknet-io/tracknet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
