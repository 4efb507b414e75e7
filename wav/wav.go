// A very simple WAVE file writer.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format documentation.
package wav

import (
	"encoding/binary"
	"errors"
	"io"
)

const wavTypePCM = 1

// ErrInvalidChunkName means a chunk identifier passed to writeChunkHeader
// was not exactly 4 characters.
var ErrInvalidChunkName = errors.New("wav: chunk name is not 4 characters")

// Writer writes a streaming WAV file to WS. Samples are accepted as they
// become available (the engine doesn't know the song length up front);
// Finish patches the RIFF and data chunk sizes once all audio has been
// written.
type Writer struct {
	WS io.WriteSeeker
}

type format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// NewWriter writes the RIFF/WAVE header and a stereo 16-bit PCM format
// chunk to ws, then opens the data chunk for writing.
func NewWriter(ws io.WriteSeeker, sampleRate int) (*Writer, error) {
	w := &Writer{WS: ws}

	if err := w.writeChunkHeader("RIFF", 0); err != nil {
		return nil, err
	}
	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	if err := w.writeChunkHeader("fmt ", 16); err != nil {
		return nil, err
	}
	f := format{AudioFormat: wavTypePCM, Channels: 2, SampleRate: uint32(sampleRate), BitsPerSample: 16}
	f.ByteRate = uint32(sampleRate) * 2 * (16 / 8)
	f.BlockAlign = 2 * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, f); err != nil {
		return nil, err
	}

	if err := w.writeChunkHeader("data", 0); err != nil {
		return nil, err
	}

	return w, nil
}

// WriteFrame writes interleaved stereo s16 samples (L, R, L, R, ...) as
// produced by an Engine's FillBuffer in MixStereoHard/MixStereoSoft mode.
func (w *Writer) WriteFrame(samples []int16) error {
	return binary.Write(w.WS, binary.LittleEndian, samples)
}

// Finish patches the RIFF and data chunk sizes now that the final length is
// known. It must be called exactly once, after the last WriteFrame.
func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	if _, err := w.WS.Seek(4, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}

	if _, err := w.WS.Seek(40, io.SeekStart); err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}

func (w *Writer) writeChunkHeader(chunk string, initialSize int) error {
	if len(chunk) != 4 {
		return ErrInvalidChunkName
	}
	if _, err := w.WS.Write([]byte(chunk)); err != nil {
		return err
	}
	return binary.Write(w.WS, binary.LittleEndian, int32(initialSize))
}
