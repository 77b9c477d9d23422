package features

import "errors"

//ErrFeatureShape is returned when a feature vector lacks a feature the model's input layout requires
var ErrFeatureShape = errors.New("feature vector does not match model inputs")
