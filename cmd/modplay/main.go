// modplay plays a MOD file through the default audio device with a live
// pattern view and keyboard transport.

package main

import (
	"flag"
	"log"
	"os"

	"github.com/halfwit/modcore"
	"github.com/halfwit/modcore/cmd/internal/config"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagStartOrd = flag.Int("start", 0, "starting order in the MOD, clamped to song max")
	flagMix      = flag.String("mix", "hard", "mix mode: mono, hard or soft stereo")
	flagReverb   = flag.String("reverb", "none", "reverb preset: none, light, medium, silly or hall")
	flagNoUI     = flag.Bool("noui", false, "disable the pattern view")
	flagNoLoop   = flag.Bool("noloop", false, "stop at the end of the song instead of looping")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing MOD filename")
	}

	modF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	engine, err := modcore.New(modF, *flagHz)
	if err != nil {
		log.Fatal(err)
	}
	if *flagNoLoop {
		engine.SetOption(modcore.OptionLoop, false)
	}

	start := *flagStartOrd
	if start >= engine.GetLength() {
		start = engine.GetLength() - 1
	}
	if start > 0 {
		engine.SetPosition(start)
	}

	var mode modcore.MixMode
	switch *flagMix {
	case "mono":
		mode = modcore.MixMono
	case "hard":
		mode = modcore.MixStereoHard
	case "soft":
		mode = modcore.MixStereoSoft
	default:
		log.Fatalf("unrecognized mix mode %q", *flagMix)
	}

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	play(engine, reverb, mode)
}
