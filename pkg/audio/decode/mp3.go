// ABOUTME: MP3 file decoder
// ABOUTME: Reads MP3 files into mono float clips
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// openMP3 decodes a whole MP3 file. go-mp3 always emits interleaved
// 16-bit stereo, so the two channels are averaged down to mono.
func openMP3(path string) (*audio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open mp3: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode: parse mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode: read mp3 pcm: %w", err)
	}

	interleaved := make([]float32, len(raw)/2)
	for i := range interleaved {
		interleaved[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	return &audio.Clip{
		Samples:    audio.MixToMono(interleaved, 2),
		SampleRate: dec.SampleRate(),
	}, nil
}
