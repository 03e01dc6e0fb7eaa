package server

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// streamInterval is the minimum gap between MJPEG parts, about 15 FPS.
const streamInterval = 66 * time.Millisecond

const streamBoundary = "frame"

// StreamHandler writes every new feed frame as one multipart JPEG part.
type StreamHandler struct {
	feed *Feed
}

func NewStreamHandler(feed *Feed) *StreamHandler {
	return &StreamHandler{feed: feed}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hdr := w.Header()
	hdr.Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	var sent uint64
	for {
		changed := h.feed.Changed()
		jpeg, seq := h.feed.Frame()

		if jpeg == nil || seq == sent {
			if h.feed.Closed() {
				return
			}
			select {
			case <-changed:
				continue
			case <-r.Context().Done():
				return
			}
		}

		if err := writePart(w, jpeg); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		sent = seq

		select {
		case <-time.After(streamInterval):
		case <-r.Context().Done():
			return
		}
	}
}

func writePart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", streamBoundary, len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
