// Bookshelf - Genre-Classified Book Recommendation API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package artifacts

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// Model is a sequential text classification network exported layer by layer
// from Keras. It is immutable after loading and safe for concurrent Predict calls.
type Model struct {
	name        string
	inputLength int // 0 accepts any sequence length
	layers      []layer
	outputDim   int
}

// tensor is either a sequence of feature vectors or a flat vector.
// The model input (token ids) is carried in ids.
type tensor struct {
	ids []int
	seq [][]float64
	vec []float64
}

// shape tracks the static output shape while layers are wired at load time.
// length is 0 when the time dimension is unknown.
type shape struct {
	kind     shapeKind
	length   int
	features int
}

type shapeKind int

const (
	shapeIDs shapeKind = iota
	shapeSeq
	shapeVec
)

type layer interface {
	kind() string
	outputShape(in shape) (shape, error)
	forward(in tensor) (tensor, error)
}

// layerSpec is the union of every supported layer's JSON fields.
type layerSpec struct {
	Type       string        `json:"type"`
	Name       string        `json:"name"`
	InputDim   int           `json:"input_dim"`
	OutputDim  int           `json:"output_dim"`
	Weights    [][]float64   `json:"weights"`
	Units      int           `json:"units"`
	Activation string        `json:"activation"`
	Kernel     [][]float64   `json:"kernel"`
	Bias       []float64     `json:"bias"`
	Filters    int           `json:"filters"`
	KernelSize int           `json:"kernel_size"`
	ConvKernel [][][]float64 `json:"conv_kernel"`
}

type modelJSON struct {
	Name        string      `json:"name"`
	InputLength int         `json:"input_length"`
	Layers      []layerSpec `json:"layers"`
}

// LoadModel reads a model JSON export and checks that every layer's weights
// agree with the shape flowing into it.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return ParseModel(data)
}

// ParseModel decodes and wires a model JSON export.
func ParseModel(data []byte) (*Model, error) {
	var raw modelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(raw.Layers) == 0 {
		return nil, fmt.Errorf("%w: model has no layers", ErrArtifactShape)
	}

	m := &Model{name: raw.Name, inputLength: raw.InputLength}
	cur := shape{kind: shapeIDs, length: raw.InputLength}

	for i, ls := range raw.Layers {
		l, err := newLayer(ls)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		next, err := l.outputShape(cur)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.kind(), err)
		}
		m.layers = append(m.layers, l)
		cur = next
	}

	if cur.kind != shapeVec {
		return nil, fmt.Errorf("%w: model output must be a vector, got a sequence", ErrArtifactShape)
	}
	m.outputDim = cur.features
	return m, nil
}

func newLayer(ls layerSpec) (layer, error) {
	switch ls.Type {
	case "embedding":
		return newEmbedding(ls)
	case "dense":
		return newDense(ls)
	case "conv1d":
		return newConv1D(ls)
	case "global_average_pooling1d":
		return globalPool{average: true}, nil
	case "global_max_pooling1d":
		return globalPool{average: false}, nil
	case "flatten":
		return flatten{}, nil
	case "dropout":
		return dropout{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLayer, ls.Type)
	}
}

// Name returns the exported model name.
func (m *Model) Name() string { return m.name }

// InputLength returns the fixed input length, or 0 if any length is accepted.
func (m *Model) InputLength() int { return m.inputLength }

// OutputDim returns the number of classes.
func (m *Model) OutputDim() int { return m.outputDim }

// Predict runs one padded token sequence through the network and returns the
// output vector (class probabilities when the last layer is softmax).
func (m *Model) Predict(ids []int) ([]float64, error) {
	if m.inputLength > 0 && len(ids) != m.inputLength {
		return nil, fmt.Errorf("%w: model expects %d tokens, got %d", ErrArtifactShape, m.inputLength, len(ids))
	}

	t := tensor{ids: ids}
	for i, l := range m.layers {
		var err error
		if t, err = l.forward(t); err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.kind(), err)
		}
	}
	return t.vec, nil
}

// ArgMax returns the index of the largest value. Ties go to the first index.
// It returns -1 for an empty slice.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// --- embedding ---

type embedding struct {
	weights [][]float64
	dim     int
}

func newEmbedding(ls layerSpec) (layer, error) {
	if len(ls.Weights) == 0 {
		return nil, fmt.Errorf("%w: embedding has no weights", ErrArtifactShape)
	}
	if ls.InputDim != 0 && ls.InputDim != len(ls.Weights) {
		return nil, fmt.Errorf("%w: embedding input_dim %d but %d weight rows", ErrArtifactShape, ls.InputDim, len(ls.Weights))
	}
	dim := len(ls.Weights[0])
	for _, row := range ls.Weights {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: ragged embedding weights", ErrArtifactShape)
		}
	}
	if ls.OutputDim != 0 && ls.OutputDim != dim {
		return nil, fmt.Errorf("%w: embedding output_dim %d but weight rows have %d", ErrArtifactShape, ls.OutputDim, dim)
	}
	return &embedding{weights: ls.Weights, dim: dim}, nil
}

func (e *embedding) kind() string { return "embedding" }

func (e *embedding) outputShape(in shape) (shape, error) {
	if in.kind != shapeIDs {
		return shape{}, fmt.Errorf("%w: embedding must be the first layer", ErrArtifactShape)
	}
	return shape{kind: shapeSeq, length: in.length, features: e.dim}, nil
}

func (e *embedding) forward(in tensor) (tensor, error) {
	seq := make([][]float64, len(in.ids))
	for i, id := range in.ids {
		if id < 0 || id >= len(e.weights) {
			return tensor{}, fmt.Errorf("%w: token id %d outside vocabulary of %d", ErrArtifactShape, id, len(e.weights))
		}
		seq[i] = e.weights[id]
	}
	return tensor{seq: seq}, nil
}

// --- dense ---

type dense struct {
	kernel     [][]float64 // [in][units]
	bias       []float64
	activation activation
}

func newDense(ls layerSpec) (layer, error) {
	if len(ls.Kernel) == 0 {
		return nil, fmt.Errorf("%w: dense has no kernel", ErrArtifactShape)
	}
	units := len(ls.Kernel[0])
	for _, row := range ls.Kernel {
		if len(row) != units {
			return nil, fmt.Errorf("%w: ragged dense kernel", ErrArtifactShape)
		}
	}
	if ls.Units != 0 && ls.Units != units {
		return nil, fmt.Errorf("%w: dense units %d but kernel has %d columns", ErrArtifactShape, ls.Units, units)
	}
	bias := ls.Bias
	if bias == nil {
		bias = make([]float64, units)
	}
	if len(bias) != units {
		return nil, fmt.Errorf("%w: dense bias has %d entries, want %d", ErrArtifactShape, len(bias), units)
	}
	act, err := parseActivation(ls.Activation)
	if err != nil {
		return nil, err
	}
	return &dense{kernel: ls.Kernel, bias: bias, activation: act}, nil
}

func (d *dense) kind() string { return "dense" }

func (d *dense) outputShape(in shape) (shape, error) {
	if in.kind != shapeVec {
		return shape{}, fmt.Errorf("%w: dense expects a vector input, add a pooling or flatten layer first", ErrArtifactShape)
	}
	if in.features != len(d.kernel) {
		return shape{}, fmt.Errorf("%w: dense expects %d inputs, got %d", ErrArtifactShape, len(d.kernel), in.features)
	}
	return shape{kind: shapeVec, features: len(d.bias)}, nil
}

func (d *dense) forward(in tensor) (tensor, error) {
	out := make([]float64, len(d.bias))
	copy(out, d.bias)
	for i, x := range in.vec {
		if x == 0 {
			continue
		}
		row := d.kernel[i]
		for j := range out {
			out[j] += x * row[j]
		}
	}
	d.activation(out)
	return tensor{vec: out}, nil
}

// --- conv1d (valid padding, stride 1) ---

type conv1D struct {
	kernel     [][][]float64 // [kernel_size][in][filters]
	bias       []float64
	activation activation
	size       int
	inFeatures int
}

func newConv1D(ls layerSpec) (layer, error) {
	k := ls.ConvKernel
	if len(k) == 0 || len(k[0]) == 0 || len(k[0][0]) == 0 {
		return nil, fmt.Errorf("%w: conv1d has no kernel", ErrArtifactShape)
	}
	size, in, filters := len(k), len(k[0]), len(k[0][0])
	for _, tap := range k {
		if len(tap) != in {
			return nil, fmt.Errorf("%w: ragged conv1d kernel", ErrArtifactShape)
		}
		for _, row := range tap {
			if len(row) != filters {
				return nil, fmt.Errorf("%w: ragged conv1d kernel", ErrArtifactShape)
			}
		}
	}
	if ls.KernelSize != 0 && ls.KernelSize != size {
		return nil, fmt.Errorf("%w: conv1d kernel_size %d but kernel has %d taps", ErrArtifactShape, ls.KernelSize, size)
	}
	if ls.Filters != 0 && ls.Filters != filters {
		return nil, fmt.Errorf("%w: conv1d filters %d but kernel has %d", ErrArtifactShape, ls.Filters, filters)
	}
	bias := ls.Bias
	if bias == nil {
		bias = make([]float64, filters)
	}
	if len(bias) != filters {
		return nil, fmt.Errorf("%w: conv1d bias has %d entries, want %d", ErrArtifactShape, len(bias), filters)
	}
	act, err := parseActivation(ls.Activation)
	if err != nil {
		return nil, err
	}
	return &conv1D{kernel: k, bias: bias, activation: act, size: size, inFeatures: in}, nil
}

func (c *conv1D) kind() string { return "conv1d" }

func (c *conv1D) outputShape(in shape) (shape, error) {
	if in.kind != shapeSeq {
		return shape{}, fmt.Errorf("%w: conv1d expects a sequence input", ErrArtifactShape)
	}
	if in.features != c.inFeatures {
		return shape{}, fmt.Errorf("%w: conv1d expects %d features, got %d", ErrArtifactShape, c.inFeatures, in.features)
	}
	length := 0
	if in.length > 0 {
		length = in.length - c.size + 1
		if length <= 0 {
			return shape{}, fmt.Errorf("%w: conv1d kernel %d longer than input %d", ErrArtifactShape, c.size, in.length)
		}
	}
	return shape{kind: shapeSeq, length: length, features: len(c.bias)}, nil
}

func (c *conv1D) forward(in tensor) (tensor, error) {
	steps := len(in.seq) - c.size + 1
	if steps <= 0 {
		return tensor{}, fmt.Errorf("%w: conv1d kernel %d longer than input %d", ErrArtifactShape, c.size, len(in.seq))
	}
	out := make([][]float64, steps)
	for t := 0; t < steps; t++ {
		acc := make([]float64, len(c.bias))
		copy(acc, c.bias)
		for k := 0; k < c.size; k++ {
			x := in.seq[t+k]
			for i, xi := range x {
				if xi == 0 {
					continue
				}
				w := c.kernel[k][i]
				for f := range acc {
					acc[f] += xi * w[f]
				}
			}
		}
		c.activation(acc)
		out[t] = acc
	}
	return tensor{seq: out}, nil
}

// --- pooling, flatten, dropout ---

// globalPool averages (or takes the max) over every time step, padding
// included, matching Keras pooling without a mask.
type globalPool struct {
	average bool
}

func (p globalPool) kind() string {
	if p.average {
		return "global_average_pooling1d"
	}
	return "global_max_pooling1d"
}

func (p globalPool) outputShape(in shape) (shape, error) {
	if in.kind != shapeSeq {
		return shape{}, fmt.Errorf("%w: pooling expects a sequence input", ErrArtifactShape)
	}
	return shape{kind: shapeVec, features: in.features}, nil
}

func (p globalPool) forward(in tensor) (tensor, error) {
	if len(in.seq) == 0 {
		return tensor{}, fmt.Errorf("%w: cannot pool an empty sequence", ErrArtifactShape)
	}
	width := len(in.seq[0])
	out := make([]float64, width)
	if !p.average {
		for j := range out {
			out[j] = math.Inf(-1)
		}
	}
	for _, step := range in.seq {
		for j, v := range step {
			if p.average {
				out[j] += v
			} else if v > out[j] {
				out[j] = v
			}
		}
	}
	if p.average {
		n := float64(len(in.seq))
		for j := range out {
			out[j] /= n
		}
	}
	return tensor{vec: out}, nil
}

type flatten struct{}

func (flatten) kind() string { return "flatten" }

func (flatten) outputShape(in shape) (shape, error) {
	switch in.kind {
	case shapeVec:
		return in, nil
	case shapeSeq:
		if in.length == 0 {
			return shape{}, fmt.Errorf("%w: flatten needs a fixed input_length", ErrArtifactShape)
		}
		return shape{kind: shapeVec, features: in.length * in.features}, nil
	default:
		return shape{}, fmt.Errorf("%w: flatten cannot follow the input directly", ErrArtifactShape)
	}
}

func (flatten) forward(in tensor) (tensor, error) {
	if in.seq == nil {
		return in, nil
	}
	out := make([]float64, 0, len(in.seq)*len(in.seq[0]))
	for _, step := range in.seq {
		out = append(out, step...)
	}
	return tensor{vec: out}, nil
}

// dropout is the identity at inference time.
type dropout struct{}

func (dropout) kind() string                        { return "dropout" }
func (dropout) outputShape(in shape) (shape, error) { return in, nil }
func (dropout) forward(in tensor) (tensor, error)   { return in, nil }

// --- activations ---

type activation func([]float64)

func parseActivation(name string) (activation, error) {
	switch name {
	case "", "linear":
		return func([]float64) {}, nil
	case "relu":
		return func(v []float64) {
			for i, x := range v {
				if x < 0 {
					v[i] = 0
				}
			}
		}, nil
	case "sigmoid":
		return func(v []float64) {
			for i, x := range v {
				v[i] = 1 / (1 + math.Exp(-x))
			}
		}, nil
	case "tanh":
		return func(v []float64) {
			for i, x := range v {
				v[i] = math.Tanh(x)
			}
		}, nil
	case "softmax":
		return softmax, nil
	default:
		return nil, fmt.Errorf("%w: activation %q", ErrUnsupportedLayer, name)
	}
}

func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - maxV)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
