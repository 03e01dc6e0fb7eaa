package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/paint"
	"github.com/ayusman/airpaint/internal/present"
)

// CursorMessage is the JSON sent to /api/cursor clients for every frame.
type CursorMessage struct {
	Session   string   `json:"session"`
	Mode      string   `json:"mode"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Brush     [3]uint8 `json:"brush"`
	Timestamp int64    `json:"timestamp"`
}

// Feed holds the latest composed frame as JPEG and the latest cursor
// message. The frame loop writes it; HTTP handlers read it. It is a
// present.Sink.
type Feed struct {
	session string

	mu        sync.Mutex
	frame     []byte
	frameSeq  uint64
	cursor    []byte
	cursorSeq uint64
	changed   chan struct{}
	closed    bool
}

// NewFeed creates an empty feed tagged with session.
func NewFeed(session string) *Feed {
	return &Feed{
		session: session,
		changed: make(chan struct{}),
	}
}

// Session returns the session id the feed was created with.
func (f *Feed) Session() string {
	return f.session
}

// Show encodes frame as JPEG and stores it as the latest frame.
func (f *Feed) Show(frame gocv.Mat) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return present.ErrClosed
	}
	f.frame = data
	f.frameSeq++
	f.notifyLocked()
	return nil
}

// PublishCursor stores st and brush as the latest cursor message.
func (f *Feed) PublishCursor(st gesture.State, brush paint.Color) error {
	msg, err := json.Marshal(CursorMessage{
		Session:   f.session,
		Mode:      st.Mode.String(),
		X:         st.Position.X,
		Y:         st.Position.Y,
		Brush:     [3]uint8{brush.R, brush.G, brush.B},
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return present.ErrClosed
	}
	f.cursor = msg
	f.cursorSeq++
	f.notifyLocked()
	return nil
}

// Frame returns the latest JPEG and its sequence number. Seq 0 means no
// frame has been shown yet.
func (f *Feed) Frame() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, f.frameSeq
}

// Cursor returns the latest cursor message and its sequence number.
func (f *Feed) Cursor() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, f.cursorSeq
}

// Changed returns a channel that is closed on the next update or on Close.
func (f *Feed) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

// Closed reports whether Close has been called.
func (f *Feed) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close wakes every waiter. Later updates return present.ErrClosed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	close(f.changed)
}

func (f *Feed) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}
