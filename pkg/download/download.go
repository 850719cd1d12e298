// Package download turns a URL (or a local media file) into a stream of
// mono samples at the pipeline's rate, by driving a media-fetch and a
// decode subprocess.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"

	"github.com/xaionaro-go/audiosync/pkg/source"
)

// New returns a sample source for the given descriptor:
//   - a URL is fetched with yt-dlp and decoded by ffmpeg;
//   - a local Ogg Vorbis file is decoded in-process;
//   - any other local file goes straight through ffmpeg.
//
// The subprocesses are bound to ctx: cancelling it kills them, which is
// how a stop request interrupts a blocked read.
func New(ctx context.Context, descriptor string, sampleRate int) (source.SampleSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: got %d", sampleRate)
	}
	if isLocalFile(descriptor) {
		if ext := strings.ToLower(descriptor); strings.HasSuffix(ext, ".ogg") || strings.HasSuffix(ext, ".oga") {
			return newVorbisSource(ctx, descriptor, sampleRate)
		}
		return newSubprocessSource(ctx, descriptor, sampleRate, true)
	}
	return newSubprocessSource(ctx, descriptor, sampleRate, false)
}

func isLocalFile(descriptor string) bool {
	if strings.Contains(descriptor, "://") {
		return false
	}
	_, err := os.Stat(descriptor)
	return err == nil
}

// subprocessSource pipes `yt-dlp -o -` into `ffmpeg` and reads mono
// float32 PCM from ffmpeg's stdout.
type subprocessSource struct {
	cancel context.CancelFunc
	ytdlp  *exec.Cmd
	ffmpeg *exec.Cmd

	counter  *datacounter.ReaderCounter
	samples  source.Float32LEReader
	closeCtx context.Context
}

var _ source.SampleSource = (*subprocessSource)(nil)

func newSubprocessSource(
	ctx context.Context,
	descriptor string,
	sampleRate int,
	local bool,
) (_ *subprocessSource, _err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		if _err != nil {
			cancel()
		}
	}()

	s := &subprocessSource{
		cancel:   cancel,
		closeCtx: ctx,
	}

	ffmpegInput := descriptor
	if !local {
		s.ytdlp = exec.CommandContext(ctx,
			"yt-dlp",
			"-q", "--no-warnings", "--no-playlist",
			"-f", "bestaudio/best",
			"-o", "-",
			descriptor,
		)
		s.ytdlp.Stderr = os.Stderr
		ffmpegInput = "pipe:0"
	}

	s.ffmpeg = exec.CommandContext(ctx,
		"ffmpeg",
		"-v", "quiet",
		"-i", ffmpegInput,
		"-f", "f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	)

	if s.ytdlp != nil {
		stdout, err := s.ytdlp.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("unable to get the stdout pipe of yt-dlp: %w", err)
		}
		s.ffmpeg.Stdin = stdout
	}

	ffmpegOut, err := s.ffmpeg.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to get the stdout pipe of ffmpeg: %w", err)
	}
	s.counter = datacounter.NewReaderCounter(ffmpegOut)
	s.samples.Reader = s.counter

	if s.ytdlp != nil {
		if err := s.ytdlp.Start(); err != nil {
			return nil, fmt.Errorf("unable to start yt-dlp: %w", err)
		}
	}
	if err := s.ffmpeg.Start(); err != nil {
		return nil, fmt.Errorf("unable to start ffmpeg: %w", err)
	}
	logger.Debugf(ctx, "downloading %q (decoding to %dHz mono)", descriptor, sampleRate)

	return s, nil
}

func (s *subprocessSource) ReadSamples(ctx context.Context, dst []float64) (int, error) {
	// The read is interrupted through process death: the commands are
	// bound to the source's context, which Close cancels.
	return s.samples.ReadSamples(dst)
}

func (s *subprocessSource) Close() error {
	s.cancel()
	if s.ytdlp != nil {
		_ = s.ytdlp.Wait()
	}
	if s.ffmpeg != nil {
		_ = s.ffmpeg.Wait()
	}
	logger.Debugf(s.closeCtx, "received %d bytes from the decoder", s.counter.Count())
	return nil
}
