package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ScriptName is the landmark service script looked up on disk.
const ScriptName = "hand_landmarks.py"

// IdleTimeout is the default for Config.Idle.
const IdleTimeout = 30 * time.Second

var ErrScriptNotFound = errors.New(ScriptName + " not found")

// MediaPipeDetector runs hand detection in a long-lived Python process.
//
// Frames go to the service's stdin as JPEG, each preceded by a 4 byte
// big-endian length. Every frame is answered by one JSON line on stdout.
// The process starts on the first Detect and is stopped after Config.Idle
// without use or after any failed exchange; the next Detect starts it again.
type MediaPipeDetector struct {
	argv      []string
	idleAfter time.Duration

	mu       sync.Mutex
	svc      *service
	lastUsed time.Time
	idle     *time.Timer
}

// NewMediaPipeDetector resolves the service command line. Nothing is started
// until the first Detect.
func NewMediaPipeDetector(cfg Config) (*MediaPipeDetector, error) {
	argv, err := resolveCommand(cfg)
	if err != nil {
		return nil, err
	}
	idle := cfg.Idle
	if idle <= 0 {
		idle = IdleTimeout
	}
	return &MediaPipeDetector{argv: argv, idleAfter: idle}, nil
}

func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		if d.svc, err = startService(d.argv); err != nil {
			return nil, err
		}
	}

	line, err := d.svc.roundTrip(buf.GetBytes())
	if err != nil {
		d.stopLocked()
		return nil, err
	}
	d.touch()

	return parseResponse(line)
}

// Running reports whether the service process is up.
func (d *MediaPipeDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.svc != nil
}

func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}
	err := d.svc.stop()
	d.svc = nil
	return err
}

// touch records a use and arms the idle timer if it is not already running.
func (d *MediaPipeDetector) touch() {
	d.lastUsed = time.Now()
	if d.idle == nil {
		d.idle = time.AfterFunc(d.idleAfter, d.expire)
	}
}

func (d *MediaPipeDetector) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil || d.idle == nil {
		return
	}
	if wait := d.idleAfter - time.Since(d.lastUsed); wait > 0 {
		d.idle.Reset(wait)
		return
	}
	d.stopLocked()
}

// service is one running landmark process.
type service struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

func startService(argv []string) (*service, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("landmark service stdin: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("landmark service stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start landmark service: %w", err)
	}

	return &service{cmd: cmd, in: in, out: bufio.NewReader(out)}, nil
}

func (s *service) roundTrip(jpeg []byte) ([]byte, error) {
	if err := writeFrame(s.in, jpeg); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}
	line, err := s.out.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read landmarks: %w", err)
	}
	return line, nil
}

// stop closes stdin, which the service treats as a shutdown request, and
// waits for it to exit.
func (s *service) stop() error {
	s.in.Close()
	return s.cmd.Wait()
}

// writeFrame sends one length-prefixed payload in a single write.
func writeFrame(w io.Writer, payload []byte) error {
	msg := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(msg, uint32(len(payload)))
	copy(msg[4:], payload)
	_, err := w.Write(msg)
	return err
}

// resolveCommand builds the argv for the landmark service.
func resolveCommand(cfg Config) ([]string, error) {
	var argv []string
	if len(cfg.Command) > 0 {
		argv = append(argv, cfg.Command...)
	} else {
		script := cfg.Script
		if script == "" {
			script = findScript()
		}
		if script == "" {
			return nil, ErrScriptNotFound
		}
		python := cfg.Python
		if python == "" {
			python = findVenvPython()
		}
		if python == "" {
			python = "python3"
		}
		argv = append(argv, python, script)
	}

	return append(argv,
		"--max-hands", strconv.Itoa(cfg.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(cfg.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(cfg.MinTrackingConf, 'f', -1, 64),
	), nil
}

// searchDirs lists where the service and its virtualenv may live: the
// working directory and its parents, the executable's directory and
// ~/.airpaint.
func searchDirs() []string {
	dirs := []string{".", "..", filepath.Join("..", "..")}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".airpaint"))
	}
	return dirs
}

func findScript() string {
	return firstExisting(searchDirs(), filepath.Join("scripts", ScriptName))
}

func findVenvPython() string {
	return firstExisting(searchDirs(), filepath.Join("venv", "bin", "python"))
}

// firstExisting joins rel onto each dir and returns the first path that
// exists, made absolute where possible.
func firstExisting(dirs []string, rel string) string {
	for _, dir := range dirs {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type wireResponse struct {
	Hands []wireHand `json:"hands"`
}

// parseResponse decodes one reply line. A hand without the full skeleton is
// skipped.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var resp wireResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse landmarks: %w", err)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, w := range resp.Hands {
		if len(w.Points) < NumLandmarks {
			continue
		}
		h := HandLandmarks{Handedness: w.Handedness, Score: w.Score}
		copy(h.Points[:], w.Points)
		hands = append(hands, h)
	}
	return hands, nil
}
