// Package wav encodes and decodes in-memory PCM WAV blobs for loudness
// capture. Only the canonical 44-byte RIFF/PCM layout is produced; decoding
// tolerates extra chunks before "data".
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	headerSize   = 44
	formatPCM    = 1
	bitsPerSamp  = 16
	maxInt16     = 32767.0
	chunkIDSize  = 4
	fmtChunkSize = 16
)

var (
	// ErrTooShort indicates the blob is smaller than a WAV header.
	ErrTooShort = errors.New("wav: blob shorter than header")
	// ErrNotWAV indicates the RIFF/WAVE magic is missing.
	ErrNotWAV = errors.New("wav: not a RIFF/WAVE blob")
	// ErrUnsupported indicates a non-PCM or non-16-bit encoding.
	ErrUnsupported = errors.New("wav: unsupported encoding")
)

// Info describes a decoded capture.
type Info struct {
	SampleRate int
	Channels   int
}

// Encode serializes float32 samples as a 16-bit PCM WAV blob. Samples are
// clamped to [-1, 1] before quantisation. channels is the interleave count
// of the input.
func Encode(samples []float32, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("wav: invalid format %dHz/%dch", sampleRate, channels)
	}

	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))

	byteRate := sampleRate * channels * bitsPerSamp / 8
	blockAlign := channels * bitsPerSamp / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(headerSize-8+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSamp))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))

	for _, s := range samples {
		f := float64(s)
		if f > 1.0 {
			f = 1.0
		} else if f < -1.0 {
			f = -1.0
		}
		binary.Write(buf, binary.LittleEndian, int16(math.Round(f*maxInt16)))
	}

	return buf.Bytes(), nil
}

// Decode parses a 16-bit PCM WAV blob into normalised float64 samples in
// [-1, 1], interleaved as stored. Chunks other than "fmt " and "data" are
// skipped.
func Decode(blob []byte) ([]float64, Info, error) {
	var info Info

	if len(blob) < headerSize {
		return nil, info, ErrTooShort
	}
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		return nil, info, ErrNotWAV
	}

	var data []byte
	haveFmt := false

	// Walk chunks after the 12-byte RIFF preamble.
	off := 12
	for off+8 <= len(blob) {
		id := string(blob[off : off+chunkIDSize])
		size := int(binary.LittleEndian.Uint32(blob[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(blob) {
			// Truncated chunk; use what is there for data, reject fmt.
			size = len(blob) - body
		}

		switch id {
		case "fmt ":
			if size < fmtChunkSize {
				return nil, info, ErrUnsupported
			}
			audioFormat := binary.LittleEndian.Uint16(blob[body : body+2])
			info.Channels = int(binary.LittleEndian.Uint16(blob[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(blob[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(blob[body+14 : body+16])
			if audioFormat != formatPCM || bits != bitsPerSamp {
				return nil, info, ErrUnsupported
			}
			haveFmt = true
		case "data":
			data = blob[body : body+size]
		}

		// Chunk bodies are word-aligned.
		off = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, info, ErrNotWAV
	}
	if info.Channels <= 0 || info.SampleRate <= 0 {
		return nil, info, ErrUnsupported
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(v) / maxInt16
	}
	return samples, info, nil
}
