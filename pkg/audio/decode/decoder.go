// ABOUTME: File decoder dispatch
// ABOUTME: Opens WAV, MP3 and FLAC files as mono float clips
package decode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Squelch-Radio/squelch-go/pkg/audio"
)

// Open decodes an audio file into a mono clip at its native sample rate.
// The format is chosen by file extension.
func Open(path string) (*audio.Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return openWAV(path)
	case ".mp3":
		return openMP3(path)
	case ".flac":
		return openFLAC(path)
	default:
		return nil, fmt.Errorf("decode: unsupported file type %q", filepath.Ext(path))
	}
}
