// mapbuild builds editor maps into batched render and collision geometry.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/assets"
	"github.com/Faultbox/brushwork/internal/behavior"
	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/config"
	"github.com/Faultbox/brushwork/internal/conv"
	"github.com/Faultbox/brushwork/internal/export"
	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/physics"
	"github.com/Faultbox/brushwork/internal/props"
	"github.com/Faultbox/brushwork/internal/render"
	"github.com/Faultbox/brushwork/internal/scene"
	"github.com/Faultbox/brushwork/internal/texture"
	"github.com/Faultbox/brushwork/pkg/geomap"
	"github.com/Faultbox/brushwork/pkg/pak"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	var code int
	switch command {
	case "info":
		code = cmdInfo(cfg, args)
	case "textures":
		code = cmdTextures(cfg, args)
	case "build":
		code = cmdBuild(cfg, args)
	case "export":
		code = cmdExport(cfg, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}

	logger.Sync()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`mapbuild - build editor maps into render and collision geometry

Usage:
  mapbuild [flags] <command> [args]

Commands:
  info <map.yaml>                 Show entities, brushes and textures
  textures <map.yaml>             Check which textures resolve to materials
  build <map.yaml>                Build the map and print the report
  export <map.yaml> [out.gltf]    Build the map and write glTF (.gltf or .glb)

Flags:
  --config <file>    Config file (default: ./brushwork.yaml)
  --textures <dir>   Texture root directory or .pak archive
  --charset <name>   Map file charset (default utf-8)
  --cell <size>      Spatial bucket cell size
  --units <n>        Map units per world unit
  --headless         Skip textures, build collision only
  --out <file>       glTF output path
  --debug            Enable debug logging

Examples:
  mapbuild info maps/e1m1.yaml
  mapbuild --textures assets build maps/e1m1.yaml
  mapbuild export maps/e1m1.yaml e1m1.glb`)
}

func cmdInfo(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mapbuild info <map.yaml>")
		return 1
	}

	g, err := geomap.LoadCharset(args[0], cfg.Build.Charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Map:      %s\n", args[0])
	fmt.Printf("Entities: %d\n", len(g.EntityIDs()))
	fmt.Printf("Brushes:  %d\n", len(g.Brushes))
	fmt.Printf("Faces:    %d\n", len(g.Faces))
	if len(g.Geometry) > 0 {
		fmt.Printf("Geometry: baked (%d faces)\n", len(g.Geometry))
	} else {
		fmt.Println("Geometry: planes")
	}
	fmt.Println()

	classCount := make(map[string]int)
	for _, e := range g.Entities {
		c := props.FromPairs(e.Properties).Classname()
		if c == "" {
			c = "(none)"
		}
		classCount[c]++
	}
	type classStat struct {
		name  string
		count int
	}
	var stats []classStat
	for name, count := range classCount {
		stats = append(stats, classStat{name, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].name < stats[j].name
	})

	fmt.Println("Entities by class:")
	for _, s := range stats {
		fmt.Printf("  %-24s %d\n", s.name, s.count)
	}

	fmt.Println()
	fmt.Println("Textures:")
	for _, t := range g.Textures() {
		fmt.Printf("  %s\n", t)
	}
	return 0
}

func cmdTextures(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mapbuild textures <map.yaml>")
		return 1
	}

	g, err := geomap.LoadCharset(args[0], cfg.Build.Charset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store, closer, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	missing := 0
	for _, name := range g.Textures() {
		if build.IsNonRendering(name) {
			fmt.Printf("  %-32s (no render)\n", name)
			continue
		}
		mat, err := store.Material(name)
		switch {
		case err != nil:
			fmt.Printf("  %-32s error: %v\n", name, err)
			missing++
		case mat == nil:
			fmt.Printf("  %-32s missing\n", name)
			missing++
		default:
			t := mat.BaseColorTexture
			fmt.Printf("  %-32s %s (%dx%d, %d maps)\n", name, t.Path, t.Width, t.Height, len(mat.Textures()))
		}
	}

	if missing > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d textures unresolved)\n", missing)
	}
	return 0
}

func cmdBuild(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mapbuild build <map.yaml>")
		return 1
	}

	m, err := buildMap(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Print(m.report.String())

	if cfg.Export.GLTFPath != "" {
		return exportMap(m, cfg.Export.GLTFPath)
	}
	return 0
}

func cmdExport(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mapbuild export <map.yaml> [out.gltf]")
		return 1
	}

	out := cfg.Export.GLTFPath
	if len(args) > 1 {
		out = args[1]
	}
	if out == "" {
		fmt.Fprintln(os.Stderr, "No output path: pass one or set --out")
		return 1
	}

	m, err := buildMap(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return exportMap(m, out)
}

// builtMap is a map built into its own scene.
type builtMap struct {
	world    *scene.World
	root     scene.NodeID
	registry *render.Registry
	report   *build.Report
	texRoot  string
}

func buildMap(cfg *config.Config, path string) (*builtMap, error) {
	registry := render.NewRegistry()
	store, closer, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	loader := assets.NewLoader(store, registry, cfg.Build.Headless)
	loader.Charset = cfg.Build.Charset

	asset, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	builder := build.NewBuilder(cfg.Build, physics.NewConvexEngine(), registry)
	builder.PostBuild = append(builder.PostBuild, behavior.NewResolver(conv.NewBasis(cfg.Build.UnitsPerMeter)))

	w := scene.NewWorld()
	root := w.Spawn(scene.None)
	report, err := builder.Build(w, root, asset)
	if err != nil {
		return nil, err
	}

	hits, misses := loader.CacheStats()
	logger.Debug("material cache",
		zap.Int("hits", hits),
		zap.Int("misses", misses),
	)

	return &builtMap{
		world:    w,
		root:     root,
		registry: registry,
		report:   report,
		texRoot:  cfg.Textures.Root,
	}, nil
}

func exportMap(m *builtMap, out string) int {
	e := export.NewExporter(m.registry, export.Options{
		TextureBase: m.texRoot,
		Lights:      true,
	})
	stats, err := e.Save(m.world, m.root, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s: %d nodes, %d meshes, %d materials, %d lights, %d triangles\n",
		out, stats.Nodes, stats.Meshes, stats.Materials, stats.Lights, stats.Triangles)
	return 0
}

// newStore serves textures from a directory, or from a PACK archive when the
// root names a .pak file.
func newStore(cfg *config.Config) (*texture.Store, io.Closer, error) {
	var fsys fs.FS = os.DirFS(cfg.Textures.Root)
	var closer io.Closer = io.NopCloser(nil)
	if strings.EqualFold(filepath.Ext(cfg.Textures.Root), ".pak") {
		a, err := pak.Open(cfg.Textures.Root)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("textures from archive",
			zap.String("pak", cfg.Textures.Root),
			zap.Int("files", len(a.List())),
		)
		fsys, closer = a, a
	}

	overrides := make(map[string]render.Filter, len(cfg.Textures.FilterOverrides))
	for name := range cfg.Textures.FilterOverrides {
		overrides[name] = render.Filter(cfg.Textures.FilterFor(name))
	}
	store := texture.NewStore(fsys, texture.Options{
		Extensions:      cfg.Textures.Extensions,
		Filter:          render.Filter(cfg.Textures.Filter),
		FilterOverrides: overrides,
	})
	return store, closer, nil
}
