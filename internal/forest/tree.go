package forest

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

const leafFeature = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	proba     []float64 // class distribution of the training rows that reached the node
}

// tree is a CART classification tree stored as a flat node slice; index 0
// is the root.
type tree struct {
	nodes []node
	// importance holds the weighted impurity decrease per feature,
	// normalised to sum to 1 (all zero for a stump).
	importance []float64
}

type treeBuilder struct {
	cols      [][]float64 // column-major copy of X
	y         []int
	nClasses  int
	nFeatures int
	params    Params
	rng       *rand.Rand
	total     float64
	nodes     []node
	decrease  []float64
}

func buildTree(cols [][]float64, y []int, samples []int, nClasses int, params Params, rng *rand.Rand) *tree {
	nFeatures := len(cols)
	b := &treeBuilder{
		cols:      cols,
		y:         y,
		nClasses:  nClasses,
		nFeatures: nFeatures,
		params:    params,
		rng:       rng,
		total:     float64(len(samples)),
		decrease:  make([]float64, nFeatures),
	}
	b.grow(samples, 0)

	if sum := floats.Sum(b.decrease); sum > 0 {
		floats.Scale(1/sum, b.decrease)
	}
	return &tree{nodes: b.nodes, importance: b.decrease}
}

func (b *treeBuilder) counts(samples []int) []float64 {
	c := make([]float64, b.nClasses)
	for _, s := range samples {
		c[b.y[s]]++
	}
	return c
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

// grow appends the subtree for samples and returns its node index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts := b.counts(samples)
	n := float64(len(samples))
	impurity := gini(counts, n)

	proba := slices.Clone(counts)
	floats.Scale(1/n, proba)

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: leafFeature, left: -1, right: -1, proba: proba})

	if impurity == 0 ||
		len(samples) < b.params.MinSamplesSplit ||
		len(samples) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		return id
	}

	sp, ok := b.bestSplit(samples, impurity)
	if !ok {
		return id
	}

	b.decrease[sp.feature] += n / b.total * sp.gain

	var left, right []int
	for _, s := range samples {
		if b.cols[sp.feature][s] <= sp.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	b.nodes[id].feature = sp.feature
	b.nodes[id].threshold = sp.threshold
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit visits features in random order until maxFeatures non-constant
// features have been examined, keeping the split with the largest impurity
// decrease.
func (b *treeBuilder) bestSplit(samples []int, impurity float64) (split, bool) {
	best := split{feature: leafFeature}
	order := b.rng.Perm(b.nFeatures)
	maxFeatures := b.params.maxFeatures(b.nFeatures)

	n := float64(len(samples))
	sorted := slices.Clone(samples)
	visited := 0

	for _, f := range order {
		if visited >= maxFeatures {
			break
		}
		slices.SortStableFunc(sorted, func(a, c int) int {
			va, vc := b.cols[f][a], b.cols[f][c]
			switch {
			case va < vc:
				return -1
			case va > vc:
				return 1
			default:
				return 0
			}
		})
		first, last := b.cols[f][sorted[0]], b.cols[f][sorted[len(sorted)-1]]
		if first == last {
			continue
		}
		visited++

		left := make([]float64, b.nClasses)
		right := b.counts(sorted)
		for i := 0; i < len(sorted)-1; i++ {
			cls := b.y[sorted[i]]
			left[cls]++
			right[cls]--

			v, next := b.cols[f][sorted[i]], b.cols[f][sorted[i+1]]
			if v == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < b.params.MinSamplesLeaf || int(nr) < b.params.MinSamplesLeaf {
				continue
			}
			gain := impurity - (nl/n)*gini(left, nl) - (nr/n)*gini(right, nr)
			if gain > best.gain {
				// adjacent doubles can round the midpoint up to next
				thr := v + (next-v)/2
				if thr == next {
					thr = v
				}
				best = split{feature: f, threshold: thr, gain: gain}
			}
		}
	}
	return best, best.feature != leafFeature
}

// predict returns the class distribution of the leaf row x falls into.
func (t *tree) predict(x []float64) []float64 {
	i := 0
	for t.nodes[i].feature != leafFeature {
		if x[t.nodes[i].feature] <= t.nodes[i].threshold {
			i = t.nodes[i].left
		} else {
			i = t.nodes[i].right
		}
	}
	return t.nodes[i].proba
}

func (t *tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		nd := t.nodes[i]
		if nd.feature == leafFeature {
			return 0
		}
		return 1 + max(walk(nd.left), walk(nd.right))
	}
	return walk(0)
}
