package videoio

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
)

// FFmpegSource decodes a video file by streaming raw RGBA frames out of an
// ffmpeg child process
type FFmpegSource struct {
	meta   *Metadata
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	closed bool
}

// OpenFFmpegSource probes the file and starts the decoder.
// You must Close() the source when done, or you will leak the child process.
func OpenFFmpegSource(filename string) (*FFmpegSource, error) {
	meta, err := Probe(filename)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-i", filename,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1")
	s := &FFmpegSource{
		meta: meta,
		cmd:  cmd,
	}
	cmd.Stderr = &s.stderr
	s.stdout, err = cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FFmpegSource) Metadata() *Metadata {
	return s.meta
}

func (s *FFmpegSource) NextFrame() (*image.RGBA, error) {
	frame := image.NewRGBA(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	_, err := io.ReadFull(s.stdout, frame.Pix)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if werr := s.wait(); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (s *FFmpegSource) Close() {
	if s.closed {
		return
	}
	s.stdout.Close()
	s.cmd.Process.Kill()
	s.cmd.Wait()
	s.closed = true
}

// wait reaps the child after the frame stream is exhausted
func (s *FFmpegSource) wait() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.cmd.Wait(); err != nil {
		if s.stderr.Len() != 0 {
			return fmt.Errorf("ffmpeg: %v", s.stderr.String())
		}
		return err
	}
	return nil
}

// FFmpegSink encodes raw RGBA frames into an H264 mp4 file via an ffmpeg
// child process
type FFmpegSink struct {
	width  int
	height int
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
}

// NewFFmpegSink creates the output file, configured with the frame rate and
// dimensions of the source metadata.
// You must Close() the sink to finalize the file.
func NewFFmpegSink(filename string, meta *Metadata) (*FFmpegSink, error) {
	cmd := exec.Command("ffmpeg",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%vx%v", meta.Width, meta.Height),
		"-framerate", meta.FrameRate,
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		filename)
	k := &FFmpegSink{
		width:  meta.Width,
		height: meta.Height,
		cmd:    cmd,
	}
	cmd.Stderr = &k.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	k.stdin = stdin
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *FFmpegSink) WriteFrame(frame *image.RGBA) error {
	if frame.Rect.Dx() != k.width || frame.Rect.Dy() != k.height {
		return fmt.Errorf("frame is %vx%v, but sink expects %vx%v", frame.Rect.Dx(), frame.Rect.Dy(), k.width, k.height)
	}
	if _, err := k.stdin.Write(frame.Pix); err != nil {
		return k.fail(err)
	}
	return nil
}

func (k *FFmpegSink) Close() error {
	if k.stdin != nil {
		k.stdin.Close()
		k.stdin = nil
	}
	if err := k.cmd.Wait(); err != nil {
		return k.fail(err)
	}
	return nil
}

func (k *FFmpegSink) fail(err error) error {
	if k.stderr.Len() != 0 {
		return fmt.Errorf("ffmpeg: %v", k.stderr.String())
	}
	return err
}
