// Package registry keeps the capture backend factories, ordered by
// priority, so that the capture layer can pick the first backend that
// actually works on the host.
package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/xaionaro-go/audiosync/pkg/source"
)

type CaptureFactory interface {
	NewCaptureSource(sampleRate int) (source.CaptureSource, error)
}

type captureFactoryWithPriority struct {
	Priority int
	CaptureFactory
}

var captureFactoryRegistry = map[reflect.Type]captureFactoryWithPriority{}

func RegisterCaptureFactory(
	priority int,
	captureFactory CaptureFactory,
) {
	t := reflect.ValueOf(captureFactory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := captureFactoryRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of CaptureSource of type %v", t))
	}
	captureFactoryRegistry[t] = captureFactoryWithPriority{
		Priority:       priority,
		CaptureFactory: captureFactory,
	}
}

func CaptureFactories() []CaptureFactory {
	var factoriesWithPriorities []captureFactoryWithPriority
	for _, factory := range captureFactoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	sort.Slice(factoriesWithPriorities, func(i, j int) bool {
		return factoriesWithPriorities[i].Priority > factoriesWithPriorities[j].Priority
	})

	var factories []CaptureFactory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.CaptureFactory)
	}

	return factories
}
