package baseline

import "errors"

var (
	//ErrModelNotFound is returned when no baseline was trained for a player
	ErrModelNotFound = errors.New("baseline model not found")

	//ErrInsufficientData is returned when there are no usable feature vectors to train on or to score
	ErrInsufficientData = errors.New("insufficient data")
)
