package tts

import (
	"encoding/binary"
	"errors"
)

// WAVDuration returns the playback length in seconds of a RIFF/WAVE payload.
// It walks the chunk list for "fmt " and "data" and divides the data size by
// the byte rate.
func WAVDuration(audio []byte) (float64, error) {
	if len(audio) < 12 || string(audio[0:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		return 0, errors.New("not a RIFF/WAVE payload")
	}

	var byteRate uint32
	var dataSize uint32
	haveData := false

	offset := 12
	for offset+8 <= len(audio) {
		id := string(audio[offset : offset+4])
		size := binary.LittleEndian.Uint32(audio[offset+4 : offset+8])
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(audio) {
				return 0, errors.New("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(audio[body+8 : body+12])
		case "data":
			dataSize = size
			// Streaming encoders write 0 or 0xFFFFFFFF when the length is unknown.
			if remaining := uint32(len(audio) - body); size == 0 || size > remaining {
				dataSize = remaining
			}
			haveData = true
		}
		if haveData && byteRate > 0 {
			break
		}

		// Chunks are word aligned.
		next := body + int(size) + int(size&1)
		if next <= offset || next > len(audio) {
			break
		}
		offset = next
	}

	if byteRate == 0 {
		return 0, errors.New("missing or invalid fmt chunk")
	}
	if !haveData {
		return 0, errors.New("missing data chunk")
	}
	return float64(dataSize) / float64(byteRate), nil
}

// SilentWAV builds a mono 16-bit PCM payload of the given length.
func SilentWAV(seconds float64, sampleRate int) []byte {
	const channels, bitsPerSample = 1, 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	dataSize := int(seconds * float64(byteRate))
	dataSize -= dataSize % (channels * bitsPerSample / 8)

	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	return buf
}
