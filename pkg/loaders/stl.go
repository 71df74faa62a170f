package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/geometry"
)

// maxSTLTriangles bounds the triangle count claimed by a binary header
const maxSTLTriangles = 1 << 24

// LoadSTL reads an ASCII or binary STL file
func LoadSTL(path string) ([]*geometry.Triangle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open STL file: %w", err)
	}
	defer file.Close()

	triangles, err := ReadSTL(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return triangles, nil
}

// ReadSTL parses STL data. Facet normals in the file are ignored and
// recomputed from the vertex order; degenerate facets are dropped.
func ReadSTL(r io.Reader) ([]*geometry.Triangle, error) {
	br := bufio.NewReader(r)

	// Binary files may also start with "solid", so only trust the ASCII
	// marker when a facet keyword follows in the first block
	header, _ := br.Peek(512)
	if bytes.HasPrefix(header, []byte("solid")) && bytes.Contains(header, []byte("facet")) {
		return readASCIISTL(br)
	}
	return readBinarySTL(br)
}

func readBinarySTL(r io.Reader) ([]*geometry.Triangle, error) {
	var header [84]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: STL header: %w", ErrInvalidSceneFile, err)
	}

	count := binary.LittleEndian.Uint32(header[80:])
	if count > maxSTLTriangles {
		return nil, fmt.Errorf("%w: STL claims %d triangles", ErrInvalidSceneFile, count)
	}

	vertex := func(b []byte) core.Vec3 {
		return core.NewVec3(
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		)
	}

	triangles := make([]*geometry.Triangle, 0, count)
	// Each record: 12 bytes normal, 3x12 bytes vertices, 2 bytes attribute
	var record [50]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, record[:]); err != nil {
			return nil, fmt.Errorf("%w: STL triangle %d: %w", ErrInvalidSceneFile, i, err)
		}
		tri := geometry.NewTriangle(vertex(record[12:]), vertex(record[24:]), vertex(record[36:]))
		if !tri.IsDegenerate() {
			triangles = append(triangles, tri)
		}
	}

	return triangles, nil
}

func readASCIISTL(r io.Reader) ([]*geometry.Triangle, error) {
	var (
		triangles []*geometry.Triangle
		vertices  []core.Vec3
		line      int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "facet":
			vertices = vertices[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: STL line %d: malformed vertex", ErrInvalidSceneFile, line)
			}
			var xyz [3]float64
			for i := range xyz {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: STL line %d: %w", ErrInvalidSceneFile, line, err)
				}
				xyz[i] = v
			}
			vertices = append(vertices, core.NewVec3(xyz[0], xyz[1], xyz[2]))
		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("%w: STL line %d: facet has %d vertices", ErrInvalidSceneFile, line, len(vertices))
			}
			tri := geometry.NewTriangle(vertices[0], vertices[1], vertices[2])
			if !tri.IsDegenerate() {
				triangles = append(triangles, tri)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read STL: %w", err)
	}

	return triangles, nil
}
