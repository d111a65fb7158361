package main

import (
	"log"
	"os"

	"github.com/blurstudio/maxdap/adapter"
)

func main() {
	if err := adapter.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
