package glx

import (
	"fmt"
	"log/slog"
)

// MaxDepth is the deepest window depth a config can be selected for.
const MaxDepth = 32

// fbConfig is a native config plus what the backend derived from it.
type fbConfig struct {
	cfg            FBConfig
	textureFormat  int
	textureTargets int
	yInverted      bool

	// Attributes the comparator ranks on, read once at enumeration.
	redSize      int
	bindRGBA     int
	doubleBuffer int
	stencilSize  int
	depthSize    int
	bindMipmap   int
}

// compareFBConfig orders two configs by preference: it returns a negative
// value when a is worse than b, positive when better and 0 when neither
// is preferred. An absent config is worse than any config; a config whose
// red channel is not 8 bits is worse than one whose is. The remaining
// attributes decide in order, first difference wins.
func compareFBConfig(a, b *fbConfig) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	// Avoid 10-bit colour configs.
	if a8, b8 := a.redSize == 8, b.redSize == 8; a8 != b8 {
		if a8 {
			return 1
		}
		return -1
	}

	lower := func(x, y int) int { return y - x }
	higher := func(x, y int) int { return x - y }
	for _, c := range [...]int{
		lower(a.bindRGBA, b.bindRGBA),
		lower(a.doubleBuffer, b.doubleBuffer),
		lower(a.stencilSize, b.stencilSize),
		lower(a.depthSize, b.depthSize),
		higher(a.bindMipmap, b.bindMipmap),
	} {
		if c != 0 {
			return c
		}
	}
	return 0
}

// fbConfigSet holds the selected config per depth.
type fbConfigSet struct {
	byDepth map[int]*fbConfig
}

func newFBConfigSet() *fbConfigSet {
	return &fbConfigSet{byDepth: make(map[int]*fbConfig)}
}

// get returns the config for depth. Depths outside [0, MaxDepth] never
// have one.
func (s *fbConfigSet) get(depth int) (*fbConfig, bool) {
	if s == nil || depth < 0 || depth > MaxDepth {
		return nil, false
	}
	c, ok := s.byDepth[depth]
	return c, ok
}

// update stores cand for depth if it beats the current occupant.
func (s *fbConfigSet) update(depth int, cand fbConfig, logger *slog.Logger) bool {
	if depth < 0 || depth > MaxDepth {
		return false
	}
	cur := s.byDepth[depth]
	if compareFBConfig(cur, &cand) >= 0 {
		return false
	}
	logger.Debug("fbconfig overrides current",
		"depth", depth,
		"config", cand.cfg,
		"targets", fmt.Sprintf("%#x", cand.textureTargets))
	s.byDepth[depth] = &cand
	return true
}

// attrOrZero reads an attribute used for ranking. A failed query ranks
// as 0.
func attrOrZero(drv Driver, cfg FBConfig, attr int) int {
	v, err := drv.FBConfigAttrib(cfg, attr)
	if err != nil {
		return 0
	}
	return v
}

// selectFBConfigs enumerates every native config and picks the preferred
// one per depth. It fails when nothing was found for the session depth.
func selectFBConfigs(drv Driver, depth int, logger *slog.Logger) (*fbConfigSet, error) {
	set := newFBConfigSet()

	for id, cfg := range drv.FBConfigs() {
		// Multisampled configs are useless for off-screen window contents.
		if v, err := drv.FBConfigAttrib(cfg, Samples); err == nil && v > 1 {
			continue
		}

		bufDepth, err := drv.FBConfigAttrib(cfg, BufferSize)
		if err != nil {
			logger.Error("failed to retrieve buffer size of fbconfig", "id", id, "error", err)
			continue
		}
		alphaDepth, err := drv.FBConfigAttrib(cfg, AlphaSize)
		if err != nil {
			logger.Error("failed to retrieve alpha size of fbconfig", "id", id, "error", err)
			continue
		}
		targets, err := drv.FBConfigAttrib(cfg, BindToTextureTargetsEXT)
		if err != nil {
			logger.Error("failed to retrieve texture targets of fbconfig", "id", id, "error", err)
			continue
		}

		// Some drivers advertise configs without a visual.
		visualDepth, ok := drv.VisualDepth(cfg)
		if !ok {
			continue
		}

		info := fbConfig{
			cfg:            cfg,
			textureTargets: targets,
			redSize:        attrOrZero(drv, cfg, RedSize),
			bindRGBA:       attrOrZero(drv, cfg, BindToTextureRGBAEXT),
			doubleBuffer:   attrOrZero(drv, cfg, DoubleBuffer),
			stencilSize:    attrOrZero(drv, cfg, StencilSize),
			depthSize:      attrOrZero(drv, cfg, DepthSize),
			bindMipmap:     attrOrZero(drv, cfg, BindToMipmapTextureEXT),
		}

		rgba := bufDepth >= 32 && alphaDepth != 0 && info.bindRGBA != 0
		rgb := false
		if v, err := drv.FBConfigAttrib(cfg, BindToTextureRGBEXT); err == nil && v != 0 {
			rgb = true
		}
		if v, err := drv.FBConfigAttrib(cfg, YInvertedEXT); err == nil {
			info.yInverted = v != 0
		}

		if opaque := bufDepth - alphaDepth; opaque == visualDepth && opaque < 32 && rgb {
			info.textureFormat = TextureFormatRGBEXT
			set.update(opaque, info, logger)
		}
		if bufDepth == visualDepth && rgba {
			info.textureFormat = TextureFormatRGBAEXT
			set.update(bufDepth, info, logger)
		}
	}

	if _, ok := set.get(depth); !ok {
		return nil, fmt.Errorf("%w: default depth %d", ErrNoFBConfig, depth)
	}
	if _, ok := set.get(32); !ok {
		logger.Warn("no fbconfig found for depth 32, ARGB windows may not render correctly")
	}
	return set, nil
}
