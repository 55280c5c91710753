package wav

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1, 0.123, -0.999}
	blob, err := Encode(in, 48000, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(blob) != 44+len(in)*2 {
		t.Errorf("blob length = %d, want %d", len(blob), 44+len(in)*2)
	}

	out, info, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.SampleRate != 48000 || info.Channels != 1 {
		t.Errorf("info = %+v, want 48000Hz mono", info)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		// One quantisation step of tolerance.
		if math.Abs(out[i]-float64(in[i])) > 1.0/32767+1e-9 {
			t.Errorf("sample %d: got %.6f, want ~%.6f", i, out[i], in[i])
		}
	}
}

func TestEncodeClampsOverFullScale(t *testing.T) {
	blob, err := Encode([]float32{2.5, -3}, 44100, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, _, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out[0] != 1 {
		t.Errorf("over-scale sample decoded to %.4f, want 1", out[0])
	}
	if out[1] < -1.001 {
		t.Errorf("under-scale sample decoded to %.4f, want >= -1", out[1])
	}
}

func TestEncodeRejectsInvalidFormat(t *testing.T) {
	if _, err := Encode(nil, 0, 1); err == nil {
		t.Error("zero sample rate accepted")
	}
	if _, err := Encode(nil, 44100, 0); err == nil {
		t.Error("zero channel count accepted")
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode([]float32{0.1, 0.2}, 44100, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	notRIFF := append([]byte(nil), valid...)
	copy(notRIFF, "JUNK")

	floatFmt := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(floatFmt[20:22], 3) // IEEE float format tag

	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, ErrTooShort},
		{"header only prefix", valid[:20], ErrTooShort},
		{"wrong magic", notRIFF, ErrNotWAV},
		{"non-PCM format", floatFmt, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.blob)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	valid, err := Encode([]float32{0.25, -0.25}, 44100, 2)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Splice a LIST chunk between "fmt " and "data". Odd-sized body checks
	// word alignment too.
	extra := make([]byte, 8+5+1)
	copy(extra, "LIST")
	binary.LittleEndian.PutUint32(extra[4:8], 5)

	spliced := append([]byte(nil), valid[:36]...)
	spliced = append(spliced, extra...)
	spliced = append(spliced, valid[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8],
		uint32(len(spliced)-8))

	out, info, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.Channels != 2 {
		t.Errorf("Channels = %d, want 2", info.Channels)
	}
	if len(out) != 2 {
		t.Fatalf("decoded %d samples, want 2", len(out))
	}
	if math.Abs(out[0]-0.25) > 1e-3 || math.Abs(out[1]+0.25) > 1e-3 {
		t.Errorf("samples = %v, want ~[0.25, -0.25]", out)
	}
}
