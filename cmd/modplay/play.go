package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
	"github.com/halfwit/modcore"
	"github.com/halfwit/modcore/internal/comb"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
	yellow  = color.New(color.FgYellow).SprintfFunc()
	blue    = color.New(color.FgHiBlue).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const (
	scratchBufferSize = 10 * 1024
	audioBufferSize   = 756 / 2
	patternRowsBefore = 4
	patternRowsAfter  = 4
	numChannels       = 4
)

// noteNames and notePeriods pair up the classic three-octave Amiga period
// table with display names for the pattern view.
var noteNames = [36]string{
	"C-1", "C#1", "D-1", "D#1", "E-1", "F-1", "F#1", "G-1", "G#1", "A-1", "A#1", "B-1",
	"C-2", "C#2", "D-2", "D#2", "E-2", "F-2", "F#2", "G-2", "G#2", "A-2", "A#2", "B-2",
	"C-3", "C#3", "D-3", "D#3", "E-3", "F-3", "F#3", "G-3", "G#3", "A-3", "A#3", "B-3",
}

var notePeriods = [36]int{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

func noteName(period int) string {
	if period == 0 {
		return "..."
	}
	for i, p := range notePeriods {
		if p == period {
			return noteNames[i]
		}
	}
	return "???"
}

// AudioPlayer encapsulates audio playback and UI rendering. The engine is
// single-threaded so mu serializes the portaudio callback against the
// keyboard and UI goroutines.
type AudioPlayer struct {
	mu      sync.Mutex
	engine  *modcore.Engine
	reverb  comb.Reverber
	mode    modcore.MixMode
	stream  *portaudio.Stream
	scratch []int16
	paused  bool
	done    bool
	mute    uint8

	// UI state
	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int
	lastOrder       int
	lastRow         int

	// Lifecycle management
	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a new AudioPlayer instance
func NewAudioPlayer(engine *modcore.Engine, reverb comb.Reverber, mode modcore.MixMode, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AudioPlayer{
		engine:         engine,
		reverb:         reverb,
		mode:           mode,
		scratch:        make([]int16, scratchBufferSize),
		uiWriter:       uiw,
		soloChannel:    -1,
		lastOrder:      -1,
		lastRow:        -1,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts the audio playback and UI rendering
func (ap *AudioPlayer) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	if err := ap.setupAudioStream(); err != nil {
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)
	fmt.Fprintln(ap.uiWriter, ap.engine.Module().Title)

	// Main render loop
	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}

		ap.mu.Lock()
		order, row := ap.engine.Position()
		ap.mu.Unlock()

		if order != ap.lastOrder || row != ap.lastRow {
			ap.renderUI(order, row)
			ap.lastOrder, ap.lastRow = order, row
		}
	}

exit:
	fmt.Fprint(ap.uiWriter, showCursor)

	// Wait for keyboard listener to fully exit and restore terminal state
	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

// setupAudioStream creates and starts the audio stream
func (ap *AudioPlayer) setupAudioStream() error {
	outChannels := ap.mode.Channels()

	stream, err := portaudio.OpenDefaultStream(
		0, outChannels,
		float64(*flagHz),
		audioBufferSize,
		ap.streamCallback,
	)
	if err != nil {
		return err
	}

	ap.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	return nil
}

// streamCallback is called by PortAudio to generate audio samples
func (ap *AudioPlayer) streamCallback(out []int16) {
	sc := ap.scratch[:len(out)]

	ap.mu.Lock()
	if ap.paused || ap.done {
		// Clear out the audio buffer to prevent unpleasant loops when
		// paused (we are still pushing PCM data to the audio device).
		clear(sc)
	} else if !ap.engine.FillBuffer(sc, len(sc), ap.mode) {
		ap.done = true
	}
	done := ap.done
	ap.mu.Unlock()

	ap.reverb.InputSamples(sc)
	n := ap.reverb.GetAudio(out)
	clear(out[n:])

	// The song has ended and the reverb tail has drained; shut down.
	if done && n == 0 {
		ap.cancelFn()
	}
}

// setupSignalHandlers handles OS signals like SIGINT
func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		for {
			select {
			case <-ap.ctx.Done():
				return
			case sig := <-sigch:
				if sig == syscall.SIGINT {
					ap.Stop()
					return
				}
			}
		}
	}()
}

// setupKeyboardHandlers handles keyboard input
func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}

			ap.handleKeyPress(key)

			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

// handleKeyPress processes a single key press
func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	switch key.Code {
	case keys.Left:
		ap.selectedChannel = max(ap.selectedChannel-1, 0)

	case keys.Right:
		ap.selectedChannel = min(ap.selectedChannel+1, numChannels-1)

	case keys.Space:
		ap.paused = !ap.paused

	case keys.RuneKey:
		if len(key.Runes) > 0 {
			switch key.Runes[0] {
			case 'q':
				ap.mute ^= 1 << ap.selectedChannel
				ap.engine.SetMute(ap.mute)

			case 's':
				if ap.soloChannel != ap.selectedChannel {
					ap.soloChannel = ap.selectedChannel
					ap.mute = ^uint8(1 << ap.selectedChannel)
				} else {
					ap.soloChannel = -1
					ap.mute = 0
				}
				ap.engine.SetMute(ap.mute)
			}
		}
	}
}

// Stop performs clean shutdown
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}

		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}

		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

// renderUI renders the transport line, channel headers and the pattern rows
// around the playing row, then moves the cursor back up for the next frame.
func (ap *AudioPlayer) renderUI(order, row int) {
	ap.renderHeader(order, row)
	ap.renderChannelHeaders()
	for i := -patternRowsBefore; i <= patternRowsAfter; i++ {
		ap.renderNoteRow(order, row+i, i == 0)
	}

	lines := 2 + patternRowsBefore + patternRowsAfter + 1
	fmt.Fprintf(ap.uiWriter, escape+"%dF", lines)
}

// renderHeader renders the playback position and timing info
func (ap *AudioPlayer) renderHeader(order, row int) {
	fmt.Fprintf(ap.uiWriter, "%s %02X/3F %s %02X/%02X %s %02d %s %3d\n",
		blue("row"), row,
		blue("pos"), order, ap.engine.GetLength(),
		blue("speed"), ap.engine.Speed(),
		blue("bpm"), ap.engine.Tempo())
}

// renderChannelHeaders renders the channel number headers
func (ap *AudioPlayer) renderChannelHeaders() {
	fmt.Fprint(ap.uiWriter, "      ")
	for i := 0; i < numChannels; i++ {
		const chanstr = "%2d          "
		if i == ap.selectedChannel {
			fmt.Fprint(ap.uiWriter, green(chanstr, i+1))
			continue
		}
		fmt.Fprintf(ap.uiWriter, chanstr, i+1)
	}
	fmt.Fprintln(ap.uiWriter)
}

// renderNoteRow renders a single row of note data
func (ap *AudioPlayer) renderNoteRow(order, row int, isCurrent bool) {
	m := ap.engine.Module()
	if order < 0 || order >= m.SequenceLength || row < 0 || row > 63 {
		fmt.Fprintln(ap.uiWriter)
		return
	}
	pattern := m.Patterns[m.Sequence[order]]

	if isCurrent {
		fmt.Fprint(ap.uiWriter, ">>> ")
	} else {
		fmt.Fprint(ap.uiWriter, "    ")
	}

	for ch := 0; ch < numChannels; ch++ {
		cell := pattern[row*numChannels+ch]
		fmt.Fprint(ap.uiWriter,
			white("%s", noteName(cell.Period)), " ",
			cyan("%2X", cell.Instrument), " ",
			magenta("%X", cell.Command), yellow("%02X", cell.Param))
		if ch < numChannels-1 {
			fmt.Fprint(ap.uiWriter, "|")
		}
	}

	if isCurrent {
		fmt.Fprint(ap.uiWriter, " <<<")
	}
	fmt.Fprintln(ap.uiWriter)
}

func play(engine *modcore.Engine, reverb comb.Reverber, mode modcore.MixMode) {
	ap := NewAudioPlayer(engine, reverb, mode, *flagNoUI)

	// Ensure cleanup on any exit path
	defer func() {
		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
		}
		fmt.Fprint(ap.uiWriter, showCursor)
	}()

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
