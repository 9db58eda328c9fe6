package classifier

import (
	"context"
	"math"
	"math/rand"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
	logFloor    = 1e-12
)

// layer is a dense layer with row-major weights: W[o*In+i].
type layer struct {
	In  int
	Out int
	W   []float64
	B   []float64
}

// network is a feed-forward classifier: ReLU hidden layers and a softmax
// output layer.
type network struct {
	layers []*layer
}

func newNetwork(sizes []int, rng *rand.Rand) *network {
	n := &network{layers: make([]*layer, 0, len(sizes)-1)}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		l := &layer{In: in, Out: out, W: make([]float64, in*out), B: make([]float64, out)}
		scale := math.Sqrt(2.0 / float64(in))
		for j := range l.W {
			l.W[j] = rng.NormFloat64() * scale
		}
		n.layers = append(n.layers, l)
	}
	return n
}

func (n *network) inputDim() int {
	return n.layers[0].In
}

func (n *network) outputDim() int {
	return n.layers[len(n.layers)-1].Out
}

func (l *layer) apply(x []float64) []float64 {
	z := make([]float64, l.Out)
	for o := 0; o < l.Out; o++ {
		sum := l.B[o]
		row := l.W[o*l.In : (o+1)*l.In]
		for i, xi := range x {
			if xi != 0 {
				sum += row[i] * xi
			}
		}
		z[o] = sum
	}
	return z
}

// forward runs inference and returns class probabilities.
func (n *network) forward(x []float64) []float64 {
	a := x
	last := len(n.layers) - 1
	for li, l := range n.layers {
		z := l.apply(a)
		if li == last {
			return softmax(z)
		}
		for i := range z {
			if z[i] < 0 {
				z[i] = 0
			}
		}
		a = z
	}
	return a
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the index of the largest value; ties go to the lowest index.
func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

// trainer applies Adam updates with inverted dropout on hidden layers.
type trainer struct {
	net     *network
	dropout []float64
	lr      float64
	rng     *rand.Rand

	step   int
	mW, vW [][]float64
	mB, vB [][]float64
	gW, gB [][]float64
}

func newTrainer(net *network, dropout []float64, lr float64, rng *rand.Rand) *trainer {
	t := &trainer{net: net, dropout: dropout, lr: lr, rng: rng}
	for _, l := range net.layers {
		t.mW = append(t.mW, make([]float64, len(l.W)))
		t.vW = append(t.vW, make([]float64, len(l.W)))
		t.gW = append(t.gW, make([]float64, len(l.W)))
		t.mB = append(t.mB, make([]float64, len(l.B)))
		t.vB = append(t.vB, make([]float64, len(l.B)))
		t.gB = append(t.gB, make([]float64, len(l.B)))
	}
	return t
}

func (t *trainer) dropRate(hidden int) float64 {
	if hidden < len(t.dropout) {
		return t.dropout[hidden]
	}
	return 0
}

// accumulate runs forward and backward for one sample, adding gradients.
// It returns the cross-entropy loss of the sample.
func (t *trainer) accumulate(x []float64, label int) float64 {
	layers := t.net.layers
	last := len(layers) - 1

	acts := make([][]float64, len(layers)+1)
	derivs := make([][]float64, len(layers))
	acts[0] = x

	for li, l := range layers {
		z := l.apply(acts[li])
		if li == last {
			acts[li+1] = softmax(z)
			break
		}
		p := t.dropRate(li)
		d := make([]float64, len(z))
		for i := range z {
			if z[i] <= 0 {
				z[i] = 0
				continue
			}
			keep := 1.0
			if p > 0 {
				if t.rng.Float64() < p {
					keep = 0
				} else {
					keep = 1 / (1 - p)
				}
			}
			z[i] *= keep
			d[i] = keep
		}
		acts[li+1] = z
		derivs[li] = d
	}

	probs := acts[len(layers)]
	loss := -math.Log(math.Max(probs[label], logFloor))

	delta := make([]float64, len(probs))
	copy(delta, probs)
	delta[label] -= 1

	for li := last; li >= 0; li-- {
		l := layers[li]
		in := acts[li]
		gW, gB := t.gW[li], t.gB[li]
		for o := 0; o < l.Out; o++ {
			g := delta[o]
			if g == 0 {
				continue
			}
			gB[o] += g
			row := gW[o*l.In : (o+1)*l.In]
			for i, xi := range in {
				if xi != 0 {
					row[i] += g * xi
				}
			}
		}
		if li == 0 {
			break
		}
		prev := make([]float64, l.In)
		d := derivs[li-1]
		for i := 0; i < l.In; i++ {
			if d[i] == 0 {
				continue
			}
			var sum float64
			for o := 0; o < l.Out; o++ {
				sum += l.W[o*l.In+i] * delta[o]
			}
			prev[i] = sum * d[i]
		}
		delta = prev
	}

	return loss
}

// update performs one Adam step with gradients averaged over batch samples
// and clears the accumulators.
func (t *trainer) update(batch int) {
	t.step++
	c1 := 1 - math.Pow(adamBeta1, float64(t.step))
	c2 := 1 - math.Pow(adamBeta2, float64(t.step))
	scale := 1 / float64(batch)

	for li, l := range t.net.layers {
		adam(l.W, t.gW[li], t.mW[li], t.vW[li], scale, c1, c2, t.lr)
		adam(l.B, t.gB[li], t.mB[li], t.vB[li], scale, c1, c2, t.lr)
	}
}

func adam(w, g, m, v []float64, scale, c1, c2, lr float64) {
	for i := range w {
		gi := g[i] * scale
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*gi
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*gi*gi
		w[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEpsilon)
		g[i] = 0
	}
}

// epoch trains on xs/ys once in shuffled mini-batches and returns the mean
// loss.
func (t *trainer) epoch(ctx context.Context, xs [][]float64, ys []int, batchSize int) (float64, error) {
	order := t.rng.Perm(len(xs))
	var total float64
	for start := 0; start < len(order); start += batchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		for _, idx := range order[start:end] {
			total += t.accumulate(xs[idx], ys[idx])
		}
		t.update(end - start)
	}
	return total / float64(len(xs)), nil
}

// accuracy is the share of samples whose arg-max matches the label.
func (n *network) accuracy(xs [][]float64, ys []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var hits int
	for i, x := range xs {
		if argmax(n.forward(x)) == ys[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(xs))
}
