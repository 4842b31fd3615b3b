package main

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/aaronpwinter/go-ray-accel/pkg/accel"
	"github.com/aaronpwinter/go-ray-accel/pkg/core"
	"github.com/aaronpwinter/go-ray-accel/pkg/loaders"
	"github.com/aaronpwinter/go-ray-accel/pkg/log"
)

var logger = log.New("go-ray-accel")

func main() {
	app := cli.NewApp()
	app.Name = "go-ray-accel"
	app.Usage = "build and benchmark triangle-mesh ray-intersection indices"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		if ctx.Bool("vv") {
			log.SetLevel(log.Debug)
		} else if ctx.Bool("v") {
			log.SetLevel(log.Info)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "bench",
			Usage:     "build an index over a model and time random ray queries",
			ArgsUsage: "model.obj",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "accel",
					Value: "bvh",
					Usage: "index variant: bvh, kdtree or octree",
				},
				cli.StringFlag{
					Name:  "split",
					Value: "",
					Usage: "split method: sah-full, sah-buckets (bvh); sah-full, midpoint, brute-force (kdtree)",
				},
				cli.IntFlag{
					Name:  "rays",
					Value: 100000,
					Usage: "number of random rays to trace",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for the ray battery",
				},
				cli.BoolFlag{
					Name:  "serial",
					Usage: "disable the task-parallel build",
				},
				cli.BoolFlag{
					Name:  "quick-return",
					Usage: "bvh only: return the first leaf hit (approximate)",
				},
			},
			Action: benchCommand,
		},
		{
			Name:      "info",
			Usage:     "print mesh and triangle counts for a model",
			ArgsUsage: "model.obj",
			Action:    infoCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func benchCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("bench: expected exactly one model file argument")
	}

	method, cfg, err := parseAccelFlags(ctx)
	if err != nil {
		return err
	}

	meshes, err := loaders.LoadOBJ(ctx.Args().First())
	if err != nil {
		return err
	}

	a := accel.New(method, cfg)
	for _, m := range meshes {
		a.AddMesh(m)
	}

	buildStart := time.Now()
	a.Build()
	buildTime := time.Since(buildStart)

	numRays := ctx.Int("rays")
	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	rays := randomRays(a.BoundingBox(), numRays, rng)

	hits := 0
	var its accel.Intersection
	queryStart := time.Now()
	for _, ray := range rays {
		if a.RayIntersect(ray, &its, false) {
			hits++
		}
	}
	queryTime := time.Since(queryStart)

	stats := a.Stats()
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"Index", ctx.String("accel")},
		{"Nodes", fmt.Sprintf("%d", stats.Nodes)},
		{"Leaves", fmt.Sprintf("%d", stats.Leaves)},
		{"Stored tris", fmt.Sprintf("%d", stats.StoredTris)},
		{"Mesh tris", fmt.Sprintf("%d", stats.MeshTris)},
		{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)},
		{"Build time", buildTime.String()},
		{"Rays", fmt.Sprintf("%d", numRays)},
		{"Hits", fmt.Sprintf("%d", hits)},
		{"Rays/sec", fmt.Sprintf("%.0f", float64(numRays)/queryTime.Seconds())},
	})
	table.Render()
	logger.Noticef("benchmark results\n%s", buf.String())

	return nil
}

func infoCommand(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("info: expected exactly one model file argument")
	}

	meshes, err := loaders.LoadOBJ(ctx.Args().First())
	if err != nil {
		return err
	}

	bbox := core.EmptyAABB()
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Mesh", "Triangles", "Normals", "Tex coords"})
	total := uint32(0)
	for _, m := range meshes {
		bbox = bbox.Union(m.BoundingBox())
		total += m.TriangleCount()
		table.Append([]string{
			m.Name(),
			fmt.Sprintf("%d", m.TriangleCount()),
			fmt.Sprintf("%t", m.HasNormals()),
			fmt.Sprintf("%t", m.HasTexCoords()),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", total), "", ""})
	table.Render()
	logger.Noticef("model info\n%s", buf.String())
	if bbox.IsValid() {
		logger.Noticef("scene bounds min=%+v max=%+v", bbox.Min, bbox.Max)
	}

	return nil
}

func parseAccelFlags(ctx *cli.Context) (accel.Method, accel.Config, error) {
	cfg := accel.DefaultConfig()
	cfg.ParallelBuild = !ctx.Bool("serial")
	cfg.QuickReturn = ctx.Bool("quick-return")

	var method accel.Method
	switch ctx.String("accel") {
	case "bvh":
		method = accel.MethodBVH
	case "kdtree":
		method = accel.MethodKDTree
	case "octree":
		method = accel.MethodOctree
	default:
		return 0, cfg, fmt.Errorf("unknown accel %q", ctx.String("accel"))
	}

	switch split := ctx.String("split"); split {
	case "":
		// keep defaults
	case "sah-full":
		cfg.BVHSplit = accel.BVHSAHFull
		cfg.KDSplit = accel.KDSAHFull
	case "sah-buckets":
		cfg.BVHSplit = accel.BVHSAHBuckets
	case "midpoint":
		cfg.KDSplit = accel.KDMidpoint
	case "brute-force":
		cfg.KDSplit = accel.KDBruteForce
	default:
		return 0, cfg, fmt.Errorf("unknown split method %q", split)
	}

	return method, cfg, nil
}

// randomRays generates rays that start outside the scene on an enclosing
// sphere and aim at random points inside the bounds
func randomRays(bounds core.AABB, n int, rng *rand.Rand) []core.Ray {
	rays := make([]core.Ray, n)
	center := bounds.Center()
	radius := bounds.Size().Length()
	if !bounds.IsValid() || radius == 0 {
		center = core.NewVec3(0, 0, 0)
		radius = 1
	}

	for i := range rays {
		theta := 2 * math.Pi * rng.Float64()
		phi := math.Acos(2*rng.Float64() - 1)
		origin := center.Add(core.NewVec3(
			radius*math.Sin(phi)*math.Cos(theta),
			radius*math.Sin(phi)*math.Sin(theta),
			radius*math.Cos(phi),
		))
		target := core.NewVec3(
			bounds.Min.X+rng.Float64()*(bounds.Max.X-bounds.Min.X),
			bounds.Min.Y+rng.Float64()*(bounds.Max.Y-bounds.Min.Y),
			bounds.Min.Z+rng.Float64()*(bounds.Max.Z-bounds.Min.Z),
		)
		if !bounds.IsValid() {
			target = center
		}
		rays[i] = core.NewRay(origin, target.Subtract(origin).Normalize())
	}
	return rays
}
