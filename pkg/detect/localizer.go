package detect

import (
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
)

//Localizer finds players in a single frame. Implementations are frame-local: nothing is carried between calls
//and no identity is matched across frames. Detect must not modify frame's pixels.
type Localizer interface {
	Detect(frame video.Frame) ([]Observation, error)
}

//LocalizerFunc adapts a function to the Localizer interface
type LocalizerFunc func(frame video.Frame) ([]Observation, error)

func (f LocalizerFunc) Detect(frame video.Frame) ([]Observation, error) {
	return f(frame)
}

type chain []Localizer

//Chain runs given localizers on the same frame and concatenates their observations, in order.
//The first error stops the chain.
func Chain(localizers ...Localizer) Localizer {
	return chain(localizers)
}

func (c chain) Detect(frame video.Frame) ([]Observation, error) {
	res := make([]Observation, 0)
	for _, l := range c {
		obs, err := l.Detect(frame)
		if err != nil {
			return nil, err
		}
		res = append(res, obs...)
	}
	return res, nil
}
