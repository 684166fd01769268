// ABOUTME: FLAC file decoder
// ABOUTME: Reads FLAC files into mono float clips
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// openFLAC decodes a whole FLAC file frame by frame.
func openFLAC(path string) (*audio.Clip, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode: parse flac: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)

	var interleaved []float32
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode: read flac frame: %w", err)
		}

		frames := len(frame.Subframes[0].Samples)
		for i := 0; i < frames; i++ {
			for ch := 0; ch < channels; ch++ {
				s := frame.Subframes[ch].Samples[i]
				interleaved = append(interleaved, audio.SampleFromInt(int(s), bitDepth))
			}
		}
	}

	return &audio.Clip{
		Samples:    audio.MixToMono(interleaved, channels),
		SampleRate: int(stream.Info.SampleRate),
	}, nil
}
