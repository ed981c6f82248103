package build

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/assets"
	"github.com/Faultbox/brushwork/internal/config"
	"github.com/Faultbox/brushwork/internal/conv"
	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/physics"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/pkg/geomap"
)

// DefaultCellSize is the edge of a consolidation bucket in world units.
const DefaultCellSize float32 = 50

// Builder runs build cycles. It is not safe for concurrent use, and two builds
// must never target the same map root at once.
type Builder struct {
	Basis        conv.Basis
	Physics      physics.Engine
	Consolidator *Consolidator
	// Solver overrides geometry solving; nil picks one per map.
	Solver geomap.Solver
	// PostBuild handlers run in order after consolidation.
	PostBuild []PostBuildHandler

	log *zap.Logger
}

// NewBuilder creates a builder from build settings.
func NewBuilder(cfg config.BuildConfig, engine physics.Engine, registry *render.Registry) *Builder {
	return &Builder{
		Basis:        conv.NewBasis(cfg.UnitsPerMeter),
		Physics:      engine,
		Consolidator: NewConsolidator(cfg.BucketCellSize, registry),
		log:          logger.Named("build"),
	}
}

// Report summarizes one build cycle.
type Report struct {
	Entities         int
	PointEntities    int
	BrushEntities    int
	Brushes          int
	Colliders        int
	Sensors          int
	SkippedFaces     int
	TangentFailures  int
	DegenerateBrush  int
	DroppedFragments int
	Events           int
	Markers          int
	Batches          []Batch
	Behaviors        int
}

// String formats the report for the CLI.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entities:   %d (%d point, %d brush)\n", r.Entities, r.PointEntities, r.BrushEntities)
	fmt.Fprintf(&b, "brushes:    %d (%d colliders, %d sensors, %d degenerate)\n", r.Brushes, r.Colliders, r.Sensors, r.DegenerateBrush)
	fmt.Fprintf(&b, "faces:      %d skipped, %d tangent failures\n", r.SkippedFaces, r.TangentFailures)
	fmt.Fprintf(&b, "fragments:  %d events, %d without material\n", r.Events, r.DroppedFragments)
	fmt.Fprintf(&b, "batches:    %d (%d source markers)\n", len(r.Batches), r.Markers)
	fmt.Fprintf(&b, "behaviors:  %d\n", r.Behaviors)
	return b.String()
}

// cycle is the state of one build.
type cycle struct {
	w      *scene.World
	root   scene.NodeID
	asset  *assets.MapAsset
	geo    geomap.Geometry
	events []SpawnMeshEvent
	report *Report
}

// Build tears down everything under mapRoot and rebuilds it from asset. A fatal
// error leaves mapRoot with no children.
func (b *Builder) Build(w *scene.World, mapRoot scene.NodeID, asset *assets.MapAsset) (*Report, error) {
	if !w.Exists(mapRoot) {
		return nil, ErrNoMapRoot
	}
	if asset == nil || asset.Geo == nil {
		return nil, ErrNoGeometry
	}

	b.Teardown(w, mapRoot)
	scene.Insert(w, mapRoot, MapRoot{Asset: asset.ID})

	solver := b.Solver
	if solver == nil {
		solver = geomap.SolverFor(asset.Geo)
	}
	geo, err := solver.Solve(asset.Geo, asset.TextureSizes)
	if err != nil {
		return nil, fmt.Errorf("solve geometry: %w", err)
	}

	c := &cycle{
		w:      w,
		root:   mapRoot,
		asset:  asset,
		geo:    geo,
		report: &Report{},
	}

	if err := b.spawnEntities(c); err != nil {
		b.Teardown(w, mapRoot)
		return nil, err
	}

	c.report.Events = len(c.events)
	batches, markers := b.Consolidator.Run(w, c.events)
	c.events = nil
	c.report.Batches = batches
	c.report.Markers = markers

	ev := PostBuildMapEvent{Map: mapRoot}
	for _, h := range b.PostBuild {
		n, err := h.PostBuild(w, ev)
		if err != nil {
			b.Teardown(w, mapRoot)
			return nil, fmt.Errorf("post-build: %w", err)
		}
		c.report.Behaviors += n
	}

	logger.WithMap(b.log, asset.ID.String(), asset.Path).Info("map built",
		zap.Int("entities", c.report.Entities),
		zap.Int("brushes", c.report.Brushes),
		zap.Int("events", c.report.Events),
		zap.Int("batches", len(c.report.Batches)),
		zap.Int("behaviors", c.report.Behaviors),
	)
	return c.report, nil
}

// Teardown removes every node under mapRoot and releases the meshes their
// Drawables registered.
func (b *Builder) Teardown(w *scene.World, mapRoot scene.NodeID) {
	if reg := b.Consolidator.Registry; reg != nil {
		for _, id := range w.Descendants(mapRoot) {
			if d, ok := scene.Get[render.Drawable](w, id); ok {
				reg.RemoveMesh(d.Mesh)
			}
		}
	}
	w.DespawnDescendants(mapRoot)
}
