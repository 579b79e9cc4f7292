package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ParseWAV decodes a RIFF/WAVE container holding 16-bit PCM and returns its
// contents as a Buffer. Multi-channel audio is downmixed to mono by
// averaging the channels per frame, since every pipeline stage expects a
// single channel.
//
// The RIFF chunks are walked rather than assuming a fixed 44-byte header
// because the fmt chunk size varies between encoders.
func ParseWAV(wav []byte) (Buffer, error) {
	if len(wav) < 12 {
		return Buffer{}, errors.New("audio: WAV data too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return Buffer{}, errors.New("audio: WAV data missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return Buffer{}, errors.New("audio: WAV data missing WAVE identifier")
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		foundFmt      bool
	)

	// Walk RIFF chunks starting immediately after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				bitsPerSample = int(binary.LittleEndian.Uint16(fmtData[14:16]))
				foundFmt = true
			}
		case "data":
			if !foundFmt {
				return Buffer{}, errors.New("audio: WAV data chunk precedes fmt chunk")
			}
			if bitsPerSample != 16 {
				return Buffer{}, fmt.Errorf("audio: unsupported WAV bit depth %d (want 16)", bitsPerSample)
			}
			end := offset + 8 + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			pcm := wav[offset+8 : end]
			if channels > 1 {
				pcm = DownmixToMono(pcm, channels)
			}
			return Buffer{Data: pcm, SampleRate: sampleRate}, nil
		}

		// Chunks are word-aligned: pad by 1 if odd size.
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}
	return Buffer{}, errors.New("audio: WAV data missing data chunk")
}

// EncodeWAV wraps the buffer in a minimal mono 16-bit PCM RIFF/WAVE
// container for handoff to the synthesis and muxing collaborators.
func EncodeWAV(b Buffer) []byte {
	const headerSize = 44
	dataLen := len(b.Data)
	out := make([]byte, headerSize+dataLen)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(out[24:28], uint32(b.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(b.SampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(out[32:34], 2)                      // block align
	binary.LittleEndian.PutUint16(out[34:36], 16)                     // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))
	copy(out[44:], b.Data)
	return out
}

// DownmixToMono averages multi-channel 16-bit PCM into a single channel.
// If channels is 1 the input is returned unchanged.
func DownmixToMono(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	frames := len(pcm) / (2 * channels)
	out := make([]byte, frames*2)
	for i := range frames {
		var sum int
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sum += int(int16(binary.LittleEndian.Uint16(pcm[idx : idx+2])))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum/channels)))
	}
	return out
}
