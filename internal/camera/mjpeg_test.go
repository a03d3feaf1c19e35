package camera

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func jpegFrame(payload ...byte) []byte {
	frame := []byte{0xFF, 0xD8}
	frame = append(frame, payload...)
	return append(frame, 0xFF, 0xD9)
}

func TestSplitFramesExtractsCompleteFrames(t *testing.T) {
	first := jpegFrame(0x01, 0x02)
	second := jpegFrame(0x03)

	var buf []byte
	buf = append(buf, first...)
	buf = append(buf, second...)

	frames, rest := splitFrames(buf)
	require.Len(t, frames, 2)
	require.Equal(t, first, frames[0])
	require.Equal(t, second, frames[1])
	require.Empty(t, rest)
}

func TestSplitFramesKeepsPartialFrame(t *testing.T) {
	full := jpegFrame(0xAA)
	partial := []byte{0xFF, 0xD8, 0xBB, 0xCC}

	var buf []byte
	buf = append(buf, full...)
	buf = append(buf, partial...)

	frames, rest := splitFrames(buf)
	require.Len(t, frames, 1)
	require.Equal(t, full, frames[0])
	require.Equal(t, partial, rest)

	// Completing the frame on the next call yields it.
	frames, rest = splitFrames(append(rest, 0xFF, 0xD9))
	require.Len(t, frames, 1)
	require.Equal(t, jpegFrame(0xBB, 0xCC), frames[0])
	require.Empty(t, rest)
}

func TestSplitFramesDropsLeadingGarbage(t *testing.T) {
	frame := jpegFrame(0x10)
	buf := append([]byte{0x00, 0x11, 0x22}, frame...)

	frames, rest := splitFrames(buf)
	require.Len(t, frames, 1)
	require.Equal(t, frame, frames[0])
	require.Empty(t, rest)
}

func TestSplitFramesKeepsTrailingMarkerByte(t *testing.T) {
	frames, rest := splitFrames([]byte{0x00, 0xFF})
	require.Empty(t, frames)
	require.Equal(t, []byte{0xFF}, rest)
}

func TestSplitFramesEmptyInput(t *testing.T) {
	frames, rest := splitFrames(nil)
	require.Empty(t, frames)
	require.Empty(t, rest)
}
