package video

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

//writeClip writes n solid frames to a temporary file, skipping the test when no writer backend exists
func writeClip(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.avi")

	w, err := gocv.VideoWriterFile(path, "MJPG", 10, 64, 48, true)
	if err != nil || !w.IsOpened() {
		t.Skipf("no video writer backend available: %v", err)
	}

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 128, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Write(frame))
	}
	require.NoError(t, w.Close())

	return path
}

func TestOpenUnreadable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, ErrUnreadableVideo)

	junk := filepath.Join(t.TempDir(), "junk.mp4")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not a video"), 0644))
	_, err = Open(junk)
	assert.ErrorIs(t, err, ErrUnreadableVideo)
}

func TestSourceReadsInOrderUntilExhausted(t *testing.T) {
	s, err := Open(writeClip(t, 5))
	require.NoError(t, err)
	defer s.Close()

	props := s.Properties()
	assert.Equal(t, 64, props.Width)
	assert.Equal(t, 48, props.Height)

	for i := 0; i < 5; i++ {
		f, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, f.Index)
		assert.Equal(t, 64, f.Width())
		assert.Equal(t, 48, f.Height())
	}

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSourceFrameCap(t *testing.T) {
	s, err := Open(writeClip(t, 6), WithMaxFrames(2))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 2; i++ {
		_, err := s.Next(context.Background())
		require.NoError(t, err)
	}
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSourceCancelled(t *testing.T) {
	s, err := Open(writeClip(t, 3))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
