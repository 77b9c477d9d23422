package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Project lays vectors out as rows of a len(vectors) x len(names) matrix following names order,
//the numeric input layout a baseline model expects. A vector missing one of names fails with ErrFeatureShape.
func Project(vectors []Vector, names []string) (*mat.Dense, error) {
	if len(vectors) == 0 || len(names) == 0 {
		return nil, fmt.Errorf("%w: empty input (%d vectors, %d features)", ErrFeatureShape, len(vectors), len(names))
	}

	data := make([]float64, 0, len(vectors)*len(names))
	for i, v := range vectors {
		for _, name := range names {
			val, ok := v[name]
			if !ok {
				return nil, fmt.Errorf("%w: vector %d has no '%s'", ErrFeatureShape, i, name)
			}
			data = append(data, val)
		}
	}

	return mat.NewDense(len(vectors), len(names), data), nil
}
