// modwav renders a MOD file to a WAV file without any audio device.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/halfwit/modcore"
	"github.com/halfwit/modcore/wav"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("modwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing MOD filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	modF, err := os.ReadFile(flag.Args()[0])
	if err != nil {
		log.Fatal(err)
	}

	engine, err := modcore.New(modF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	engine.SetOption(modcore.OptionLoop, false) // render once through, then stop

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)

	audioOut := make([]int16, 4096)
	lastOrder := -1

	playing := true
	for playing {
		select {
		case <-sigch:
			playing = false
		default:
		}

		more := engine.FillBuffer(audioOut, len(audioOut), modcore.MixStereoHard)
		if err := wavW.WriteFrame(audioOut); err != nil {
			log.Fatal(err)
		}

		if order, _ := engine.Position(); order != lastOrder {
			fmt.Printf("%d/%d\n", order+1, engine.GetLength())
			lastOrder = order
		}

		if !more {
			playing = false
		}
	}

	if _, err := wavW.Finish(); err != nil {
		log.Fatal(err)
	}
}
