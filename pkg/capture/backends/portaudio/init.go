package portaudio

import (
	"github.com/xaionaro-go/audiosync/pkg/source"
	"github.com/xaionaro-go/audiosync/pkg/source/registry"
)

const (
	// Lower than Pulse: PortAudio records the default input device
	// rather than the playback monitor, which only approximates what
	// the machine is playing (e.g. through a loopback device).
	Priority = 50
)

func init() {
	registry.RegisterCaptureFactory(Priority, CaptureSourcePortAudioFactory{})
}

type CaptureSourcePortAudioFactory struct{}

func (CaptureSourcePortAudioFactory) NewCaptureSource(sampleRate int) (source.CaptureSource, error) {
	return NewCaptureSource(sampleRate)
}
