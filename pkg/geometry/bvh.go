package geometry

import (
	"sort"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // Shapes for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection.
// It is read-only after construction and safe for concurrent queries.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}

	// Sorting happens in place, so work on a copy
	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	return &BVH{Root: buildBVH(shapesCopy)}
}

// buildBVH recursively builds the BVH with median splits along the longest axis
func buildBVH(shapes []Shape) *BVHNode {
	boundingBox := shapes[0].BoundingBox()
	for _, shape := range shapes[1:] {
		boundingBox = boundingBox.Union(shape.BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Shapes:      shapes,
		}
	}

	splitAxis := boundingBox.LongestAxis()
	sort.Slice(shapes, func(i, j int) bool {
		return axis(shapes[i].BoundingBox().Center(), splitAxis) < axis(shapes[j].BoundingBox().Center(), splitAxis)
	})

	mid := len(shapes) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(shapes[:mid]),
		Right:       buildBVH(shapes[mid:]),
	}
}

// Hit returns the closest intersection with any shape in the BVH
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	if bvh.Root == nil {
		return SurfaceHit{}, false
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax)
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return SurfaceHit{}, false
	}

	var closest SurfaceHit
	hitAnything := false
	closestSoFar := tMax

	// Leaf node: linear search
	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
				hitAnything = true
				closestSoFar = hit.T
				closest = hit
			}
		}
		return closest, hitAnything
	}

	for _, child := range [2]*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, isHit := bvh.hitNode(child, ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}
