package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mewkiz/flac"
)

// ErrUnknownFormat is returned for audio files that are neither WAV nor FLAC.
var ErrUnknownFormat = errors.New("unknown audio format")

// ProbeDuration returns the length of the audio file at path in seconds.
func ProbeDuration(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return probeFLAC(path)
	case ".wav", ".wave":
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		return wavDuration(f)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}
}

func probeFLAC(path string) (float64, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading flac stream info: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info == nil || info.SampleRate == 0 {
		return 0, errors.New("flac stream info has no sample rate")
	}
	return float64(info.NSamples) / float64(info.SampleRate), nil
}

// wavDuration walks the RIFF chunks for "fmt " and "data" and divides the data
// size by the byte rate.
func wavDuration(r io.Reader) (float64, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, fmt.Errorf("reading wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnknownFormat)
	}

	var byteRate uint32
	chunk := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return 0, fmt.Errorf("reading wav chunk: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return 0, fmt.Errorf("wav fmt chunk too short: %d", size)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, fmt.Errorf("reading wav fmt chunk: %w", err)
			}
			byteRate = binary.LittleEndian.Uint32(body[8:12])
		case "data":
			if byteRate == 0 {
				return 0, errors.New("wav data chunk before fmt chunk")
			}
			return float64(size) / float64(byteRate), nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return 0, fmt.Errorf("skipping wav chunk %q: %w", id, err)
			}
		}
		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return 0, err
			}
		}
	}
}
