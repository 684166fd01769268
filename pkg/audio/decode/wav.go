// ABOUTME: WAV file decoder
// ABOUTME: Reads PCM WAV files into mono float clips
package decode

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// openWAV decodes a whole WAV file.
func openWAV(path string) (*audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode: %s is not a valid wav file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode: read wav pcm: %w", err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	interleaved := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		interleaved[i] = audio.SampleFromInt(s, bitDepth)
	}

	return &audio.Clip{
		Samples:    audio.MixToMono(interleaved, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}
