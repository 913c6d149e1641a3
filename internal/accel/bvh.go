package accel

import (
	"context"
	"errors"
	"sort"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// bvhLeafSize is the element count below which a node stays a leaf
const bvhLeafSize = 4

// BVHBuilder builds a bounding-volume hierarchy over element boxes. It is
// the default Builder; the interface stays so tests and alternative index
// services can stand in.
type BVHBuilder struct{}

type bvhEntry struct {
	key scene.ElementKey
	box geometry.BoundingBox
}

type bvhNode struct {
	box     geometry.BoundingBox
	left    *bvhNode
	right   *bvhNode
	entries []bvhEntry // leaf only
}

type bvhIndex struct {
	root *bvhNode
}

// Build constructs the hierarchy by recursive median split along the longest
// axis. progress is reported per element partitioned into a leaf.
func (BVHBuilder) Build(ctx context.Context, model *scene.Model, progress func(done, total int)) (Index, error) {
	if model == nil || len(model.Elements) == 0 {
		return nil, errors.New("no elements to index")
	}

	entries := make([]bvhEntry, 0, len(model.Elements))
	for _, el := range model.Elements {
		entries = append(entries, bvhEntry{
			key: scene.ElementKey{ModelID: model.ID, LocalID: el.LocalID},
			box: el.Box,
		})
	}

	total := len(entries)
	done := 0
	root, err := buildNode(ctx, entries, func(n int) {
		done += n
		if progress != nil {
			progress(done, total)
		}
	})
	if err != nil {
		return nil, err
	}
	return &bvhIndex{root: root}, nil
}

func buildNode(ctx context.Context, entries []bvhEntry, report func(n int)) (*bvhNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	node := &bvhNode{box: geometry.NewBoundingBox()}
	for _, e := range entries {
		node.box.Union(e.box)
	}

	if len(entries) <= bvhLeafSize {
		node.entries = entries
		report(len(entries))
		return node, nil
	}

	axis := longestAxis(node.box)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].box.Center().Component(axis) < entries[j].box.Center().Component(axis)
	})
	mid := len(entries) / 2

	var err error
	if node.left, err = buildNode(ctx, entries[:mid], report); err != nil {
		return nil, err
	}
	if node.right, err = buildNode(ctx, entries[mid:], report); err != nil {
		return nil, err
	}
	return node, nil
}

func longestAxis(box geometry.BoundingBox) int {
	size := box.Size()
	axis := 0
	longest := size.X
	if size.Y > longest {
		axis, longest = 1, size.Y
	}
	if size.Z > longest {
		axis = 2
	}
	return axis
}

func (idx *bvhIndex) Raycast(ctx context.Context, ray geometry.Ray, hidden scene.IDMap) (*scene.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	best := walk(idx.root, ray, hidden, nil)
	if best == nil {
		return nil, scene.ErrNotFound
	}
	return best, nil
}

func walk(node *bvhNode, ray geometry.Ray, hidden scene.IDMap, best *scene.Hit) *scene.Hit {
	if node == nil {
		return best
	}
	dist, hit := ray.IntersectBox(node.box)
	if !hit || (best != nil && dist >= best.Distance) {
		return best
	}

	if node.entries != nil {
		for _, e := range node.entries {
			if hidden.Has(e.key) {
				continue
			}
			d, ok := ray.IntersectBox(e.box)
			if !ok || (best != nil && d >= best.Distance) {
				continue
			}
			best = &scene.Hit{Key: e.key, Point: ray.At(d), Distance: d}
		}
		return best
	}

	best = walk(node.left, ray, hidden, best)
	return walk(node.right, ray, hidden, best)
}

func (idx *bvhIndex) Dispose() {
	idx.root = nil
}
