package baseline

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const eulerGamma = 0.5772156649015329

//ForestParams control isolation forest training
type ForestParams struct {
	Trees      int   `mapstructure:"trees" json:"trees"`
	SampleSize int   `mapstructure:"sample_size" json:"sample_size"`
	Seed       int64 `mapstructure:"seed" json:"seed"`
}

//DefaultForestParams are the usual isolation forest settings (100 trees, 256 samples per tree)
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, SampleSize: 256, Seed: 42}
}

//Node is one isolation tree node. Leaves have Left == -1 and keep the number of training samples that reached them.
type Node struct {
	Feature int     `json:"f"`
	Split   float64 `json:"s"`
	Left    int     `json:"l"`
	Right   int     `json:"r"`
	Size    int     `json:"n"`
}

//Tree is a flattened isolation tree, Nodes[0] is the root
type Tree struct {
	Nodes []Node `json:"nodes"`
}

//Forest is a fitted isolation forest. It is never modified after Fit so concurrent scoring is safe.
type Forest struct {
	Trees      []Tree `json:"trees"`
	SampleSize int    `json:"sample_size"`
	Dims       int    `json:"dims"`
}

//FitForest grows an isolation forest on the rows of x
func FitForest(x mat.Matrix, params ForestParams) (*Forest, error) {
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return nil, ErrInsufficientData
	}
	if params.Trees <= 0 {
		return nil, errors.New("forest: trees must be positive")
	}

	psi := params.SampleSize
	if psi <= 0 || psi > n {
		psi = n
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(psi), 2))))

	rng := rand.New(rand.NewSource(params.Seed))
	f := &Forest{Trees: make([]Tree, params.Trees), SampleSize: psi, Dims: d}

	for t := range f.Trees {
		idx := rng.Perm(n)[:psi]
		b := treeBuilder{x: x, dims: d, rng: rng, maxDepth: maxDepth}
		b.grow(idx, 0)
		f.Trees[t] = Tree{Nodes: b.nodes}
	}

	return f, nil
}

type treeBuilder struct {
	x        mat.Matrix
	dims     int
	rng      *rand.Rand
	maxDepth int
	nodes    []Node
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Size: len(idx)})

	if depth >= b.maxDepth || len(idx) <= 1 {
		return self
	}

	//pick a random feature among those that still vary
	order := b.rng.Perm(b.dims)
	for _, feature := range order {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := b.x.At(i, feature)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if lo == hi {
			continue
		}

		split := lo + b.rng.Float64()*(hi-lo)
		left := make([]int, 0, len(idx))
		right := make([]int, 0, len(idx))
		for _, i := range idx {
			if b.x.At(i, feature) < split {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}

		l := b.grow(left, depth+1)
		r := b.grow(right, depth+1)
		b.nodes[self] = Node{Feature: feature, Split: split, Left: l, Right: r, Size: len(idx)}
		return self
	}

	return self
}

//averagePathLength is c(n), the mean path length of an unsuccessful search in a binary search tree of n items
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

func (t Tree) pathLength(row []float64) float64 {
	node, depth := 0, 0.0
	for {
		nd := t.Nodes[node]
		if nd.Left < 0 {
			return depth + averagePathLength(nd.Size)
		}
		if row[nd.Feature] < nd.Split {
			node = nd.Left
		} else {
			node = nd.Right
		}
		depth++
	}
}

//AnomalyScore returns s(x) in (0,1]; values close to 1 are anomalies, values well below 0.5 are normal
func (f *Forest) AnomalyScore(row []float64) float64 {
	norm := averagePathLength(f.SampleSize)
	if norm == 0 || len(f.Trees) == 0 {
		return 0.5
	}

	total := 0.0
	for _, t := range f.Trees {
		total += t.pathLength(row)
	}
	mean := total / float64(len(f.Trees))

	return math.Pow(2, -mean/norm)
}

//Decision returns the signed distance to the inlier boundary: 0.5 - s(x). Negative values are anomalous.
func (f *Forest) Decision(row []float64) float64 {
	return 0.5 - f.AnomalyScore(row)
}
