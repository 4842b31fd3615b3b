package accel

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats summarizes a built tree
type Stats struct {
	// Nodes is the total node count, leaves included
	Nodes int
	// Leaves is the leaf node count
	Leaves int
	// StoredTris counts triangle references stored in leaves. For the Octree
	// and KD-tree this can exceed MeshTris because straddling triangles are
	// duplicated; for the BVH the two are equal.
	StoredTris int
	// MeshTris is the number of triangles across all registered meshes
	MeshTris int
	// MaxDepth is the deepest leaf level, with the root at depth 0
	MaxDepth int
	// BuildTime is how long construction took
	BuildTime time.Duration
}

// Table renders the stats as an aligned text table
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Nodes", "Leaves", "Stored tris", "Mesh tris", "Max depth", "Build time"})
	table.Append([]string{
		fmt.Sprintf("%d", s.Nodes),
		fmt.Sprintf("%d", s.Leaves),
		fmt.Sprintf("%d", s.StoredTris),
		fmt.Sprintf("%d", s.MeshTris),
		fmt.Sprintf("%d", s.MaxDepth),
		s.BuildTime.String(),
	})
	table.Render()
	return buf.String()
}
