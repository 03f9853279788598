package media

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// readWAV decodes a PCM WAV file into normalized float64 samples in
// [-1, 1] and returns the sample rate. Multi-channel files are averaged
// down to mono, though ffmpeg extraction always produces mono here.
func readWAV(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file: %s", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM: %w", err)
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("no channels in %s", path)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))

	frames := len(pcm.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c]) * scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples, pcm.Format.SampleRate, nil
}
