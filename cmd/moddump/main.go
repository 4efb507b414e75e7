package main

import (
	"log"
	"os"

	"github.com/halfwit/modcore"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("moddump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing song filename")
	}

	songFName := os.Args[1]
	songF, err := os.ReadFile(songFName)
	if err != nil {
		log.Fatal(err)
	}

	m, err := modcore.Load(songF)
	if err != nil {
		log.Fatal(err)
	}

	modcore.DumpModule(os.Stdout, m)
}
