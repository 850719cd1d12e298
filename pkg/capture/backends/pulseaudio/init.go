package pulseaudio

import (
	"github.com/xaionaro-go/audiosync/pkg/source"
	"github.com/xaionaro-go/audiosync/pkg/source/registry"
)

const (
	Priority = 100
)

func init() {
	registry.RegisterCaptureFactory(Priority, CaptureSourcePulseFactory{})
}

type CaptureSourcePulseFactory struct{}

func (CaptureSourcePulseFactory) NewCaptureSource(sampleRate int) (source.CaptureSource, error) {
	return NewCaptureSource(sampleRate)
}
