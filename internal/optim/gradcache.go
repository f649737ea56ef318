package optim

import "github.com/born-ml/lazyopt/internal/graph"

type gradKey struct {
	loss  graph.NodeKey
	param graph.VarID
}

// GradientCache maps (loss, parameter) pairs to gradient nodes.
//
// Entries are never evicted; the cache lives as long as its owner.
type GradientCache struct {
	entries map[gradKey]*graph.Node
}

// NewGradientCache creates an empty cache.
func NewGradientCache() *GradientCache {
	return &GradientCache{entries: make(map[gradKey]*graph.Node)}
}

// Get returns the cached gradient of loss with respect to param.
func (c *GradientCache) Get(loss *graph.Node, param *graph.Variable) (*graph.Node, bool) {
	g, ok := c.entries[gradKey{loss: loss.Key(), param: param.ID()}]
	return g, ok
}

// Put stores a gradient. An existing entry is kept.
func (c *GradientCache) Put(loss *graph.Node, param *graph.Variable, grad *graph.Node) {
	key := gradKey{loss: loss.Key(), param: param.ID()}
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = grad
}

// Len returns the number of cached pairs.
func (c *GradientCache) Len() int {
	return len(c.entries)
}
