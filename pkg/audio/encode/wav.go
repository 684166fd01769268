// ABOUTME: WAV file encoder
// ABOUTME: Writes mono float clips as 16-bit PCM WAV files
package encode

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// WriteWAV writes a mono clip to path as 16-bit PCM WAV.
func WriteWAV(path string, clip *audio.Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("encode: create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, clip.SampleRate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: clip.SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(clip.Samples)),
	}
	for i, s := range clip.Samples {
		buf.Data[i] = int(audio.SampleToInt16(s))
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode: write wav pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: finalize wav: %w", err)
	}
	return nil
}
