package behavior

import (
	"go.uber.org/zap"

	"github.com/Faultbox/brushwork/internal/build"
	"github.com/Faultbox/brushwork/internal/conv"
	"github.com/Faultbox/brushwork/internal/logger"
	"github.com/Faultbox/brushwork/internal/scene"
)

// Resolver attaches behaviors to the entities of a freshly built map.
type Resolver struct {
	Basis conv.Basis

	log *zap.Logger
}

// NewResolver creates a resolver converting offsets with basis.
func NewResolver(basis conv.Basis) *Resolver {
	return &Resolver{
		Basis: basis,
		log:   logger.Named("behavior"),
	}
}

// PostBuild implements build.PostBuildHandler. It resolves every entity node
// below the map root and returns the number of behaviors attached.
func (r *Resolver) PostBuild(w *scene.World, ev build.PostBuildMapEvent) (int, error) {
	if !w.Exists(ev.Map) {
		return 0, build.ErrNoMapRoot
	}

	attached := 0
	for _, id := range w.Descendants(ev.Map) {
		e, ok := scene.Get[build.MapEntityProperties](w, id)
		if !ok {
			continue
		}
		b, ok := Resolve(e, r.Basis)
		if !ok {
			continue
		}
		Attach(w, id, b)
		attached++

		r.log.Debug("behavior attached",
			zap.Uint32("entity", uint32(e.ID)),
			zap.String("classname", b.Name()),
		)
	}
	return attached, nil
}
