// Package camera handles device discovery and MJPEG frame capture streams.
package camera

import "bytes"

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// splitFrames extracts complete SOI..EOI JPEG frames from an MJPEG byte
// stream. Bytes after the last complete frame are returned as rest and must
// be carried into the next call. Garbage before a frame start is dropped.
func splitFrames(buf []byte) (frames [][]byte, rest []byte) {
	for {
		start := bytes.Index(buf, jpegSOI)
		if start < 0 {
			// Keep a trailing 0xFF in case the marker straddles two reads.
			if len(buf) > 0 && buf[len(buf)-1] == 0xFF {
				return frames, buf[len(buf)-1:]
			}
			return frames, nil
		}
		buf = buf[start:]

		end := bytes.Index(buf[len(jpegSOI):], jpegEOI)
		if end < 0 {
			return frames, buf
		}
		frameLen := len(jpegSOI) + end + len(jpegEOI)

		frame := make([]byte, frameLen)
		copy(frame, buf[:frameLen])
		frames = append(frames, frame)
		buf = buf[frameLen:]
	}
}
