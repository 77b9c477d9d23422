//Package render writes an annotated copy of an analyzed video.
package render

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

//DefaultCodec is MPEG-4, written into an '.avi' container
const DefaultCodec = "XVID"

//DefaultQueueSize is how many frames may wait for the writer before new ones are dropped
const DefaultQueueSize = 32

var errRendererClosed = errors.New("renderer closed")

type job struct {
	mat          gocv.Mat
	observations []detect.Observation
}

//Renderer overlays observations on frames and writes them to a video file from its own goroutine.
//Submit never blocks the analysis loop and never touches the submitted frame: it works on a copy,
//and when the writer lags behind the copy is dropped.
type Renderer struct {
	path      string
	codec     string
	queueSize int
	transcode bool
	log       *logrus.Entry

	writer *gocv.VideoWriter
	queue  chan job
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
	written int
	err     error
}

type Option func(*Renderer)

//WithCodec sets the fourcc code of the output
func WithCodec(codec string) Option {
	return func(r *Renderer) {
		if len(codec) == 4 {
			r.codec = codec
		}
	}
}

//WithQueueSize sets how many frames may be pending
func WithQueueSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

//WithTranscode converts the finished file to mp4 with ffmpeg so browsers can play it
func WithTranscode(enabled bool) Option {
	return func(r *Renderer) {
		r.transcode = enabled
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

//New opens path for writing at the source's resolution and frame rate and starts the writer goroutine
func New(path string, props video.Properties, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		path:      path,
		codec:     DefaultCodec,
		queueSize: DefaultQueueSize,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("component", "renderer")

	if props.Width <= 0 || props.Height <= 0 {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", props.Width, props.Height)
	}
	fps := props.FPS
	if fps <= 0 {
		fps = 25
	}

	writer, err := gocv.VideoWriterFile(path, r.codec, fps, props.Width, props.Height, true)
	if err != nil {
		return nil, fmt.Errorf("render: opening '%s': %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("render: could not open '%s' with codec %s", path, r.codec)
	}

	r.writer = writer
	r.queue = make(chan job, r.queueSize)
	r.done = make(chan struct{})

	go r.loop()

	return r, nil
}

func (r *Renderer) loop() {
	defer close(r.done)

	for j := range r.queue {
		plotObservations(&j.mat, j.observations)
		err := r.writer.Write(j.mat)
		j.mat.Close()

		r.mu.Lock()
		if err != nil && r.err == nil {
			r.err = err
		}
		r.written++
		r.mu.Unlock()
	}
}

//Submit queues an annotated copy of frame. It returns false when the frame was dropped.
func (r *Renderer) Submit(frame video.Frame, observations []detect.Observation) bool {
	if frame.Mat.Empty() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	obs := make([]detect.Observation, len(observations))
	copy(obs, observations)
	j := job{mat: frame.Mat.Clone(), observations: obs}

	select {
	case r.queue <- j:
		return true
	default:
		j.mat.Close()
		r.dropped++
		return false
	}
}

//Dropped returns how many frames were skipped because the queue was full
func (r *Renderer) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

//Close drains the queue, finalizes the file and returns the path of the playable output
func (r *Renderer) Close() (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", errRendererClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done

	closeErr := r.writer.Close()

	r.mu.Lock()
	writeErr, written, dropped := r.err, r.written, r.dropped
	r.mu.Unlock()

	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil && written == 0 {
		writeErr = errors.New("render: no frame written")
	}
	if writeErr != nil {
		os.Remove(r.path)
		return "", fmt.Errorf("render: writing '%s': %w", r.path, writeErr)
	}

	r.log.WithFields(logrus.Fields{"path": r.path, "frames": written, "dropped": dropped}).Debug("annotated video written")

	if !r.transcode {
		return r.path, nil
	}
	return r.toMP4(), nil
}

//toMP4 converts the written file, on failure the original file is kept and returned
func (r *Renderer) toMP4() string {
	out := strings.TrimSuffix(r.path, filepath.Ext(r.path)) + ".mp4"
	if out == r.path {
		return r.path
	}

	//example: ffmpeg -y -i match.avi match.mp4
	cmd := exec.Command("ffmpeg", "-y", "-i", r.path, out)
	if err := cmd.Run(); err != nil {
		r.log.WithError(err).Warn("ffmpeg transcode failed, keeping original output")
		return r.path
	}

	os.Remove(r.path)
	return out
}
