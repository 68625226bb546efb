package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mjibson/go-dsp/wav"
)

const (
	pcmFormat      = 1
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	wavHeaderSize  = 44
)

var ErrUnsupportedClip = errors.New("audio: unsupported clip format")

// WriteWAV frames mono 16-bit samples as a canonical PCM WAV file.
func WriteWAV(w io.Writer, sampleRate int, samples []int16) error {
	dataLen := uint32(len(samples) * bytesPerSample)
	byteRate := uint32(sampleRate * bytesPerSample)

	var hdr bytes.Buffer
	hdr.Grow(wavHeaderSize)
	hdr.WriteString("RIFF")
	binary.Write(&hdr, binary.LittleEndian, 36+dataLen)
	hdr.WriteString("WAVE")

	hdr.WriteString("fmt ")
	binary.Write(&hdr, binary.LittleEndian, uint32(16))
	binary.Write(&hdr, binary.LittleEndian, uint16(pcmFormat))
	binary.Write(&hdr, binary.LittleEndian, uint16(1))
	binary.Write(&hdr, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&hdr, binary.LittleEndian, byteRate)
	binary.Write(&hdr, binary.LittleEndian, uint16(bytesPerSample))
	binary.Write(&hdr, binary.LittleEndian, uint16(bitsPerSample))

	hdr.WriteString("data")
	binary.Write(&hdr, binary.LittleEndian, dataLen)

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

func writeWAVFile(path string, sampleRate int, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := WriteWAV(bw, sampleRate, samples); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Clip is a decoded mono recording with samples in [-1, 1].
type Clip struct {
	SampleRate int
	Samples    []float32
}

func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// ReadClip decodes a mono PCM WAV file.
func ReadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeClip(bufio.NewReader(f))
}

func decodeClip(r io.Reader) (*Clip, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	if w.NumChannels != 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedClip, w.NumChannels)
	}
	c := &Clip{SampleRate: int(w.SampleRate)}
	if w.Samples == 0 {
		return c, nil
	}
	c.Samples, err = w.ReadFloats(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("audio: read samples: %w", err)
	}
	return c, nil
}
