// Package spray turns a pointer position into paint on a drawing layer.
//
// Each application scatters particles around the nozzle position. Offsets are
// drawn from a mixture of Gaussians so that density concentrates near the
// centre while a few particles land far out as splatter. Every particle is a
// small anti-aliased disc whose opacity falls off with distance. Particles are
// rasterized onto a scratch layer which is then blended onto the drawing layer
// once per application.
package spray

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/example/spraycan/internal/render"
)

// Source is the random source used to place particles. *rand.Rand from
// math/rand/v2 satisfies it; a fixed seed reproduces a stroke exactly.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// Component is one Gaussian of the offset mixture. Sigma is a multiple of the
// brush radius.
type Component struct {
	Weight float64
	Sigma  float64
}

// ParticleSize is a disc radius in pixels with its relative frequency.
type ParticleSize struct {
	Weight float64
	Radius float64
}

// Config tunes the particle scatter.
type Config struct {
	// Density is the number of particles per pixel of brush radius.
	Density float64
	// Falloff is the exponent applied to (1 - distance/radius).
	Falloff float64
	// MaxAlpha caps the alpha of the drawing layer so repeated passes build
	// up without saturating.
	MaxAlpha uint8
	// PassFraction caps what one application may accumulate, as a fraction
	// of MaxAlpha. Below 1 a single pass never reaches MaxAlpha.
	PassFraction float64
	// Cutoff is the outer reach of any particle as a multiple of the radius.
	Cutoff float64
	// SplatterOpacity is the opacity factor of particles beyond the radius,
	// fading to zero at the cutoff.
	SplatterOpacity float64
	// MinJitter is the lower bound of the per-particle opacity multiplier.
	MinJitter float64
	Mixture   []Component
	Sizes     []ParticleSize
}

// DefaultConfig returns the tuning used by the application.
func DefaultConfig() Config {
	return Config{
		Density:         4,
		Falloff:         1.8,
		MaxAlpha:        200,
		PassFraction:    0.6,
		Cutoff:          2,
		SplatterOpacity: 0.15,
		MinJitter:       0.3,
		Mixture: []Component{
			{Weight: 0.50, Sigma: 1 / 3.5},
			{Weight: 0.35, Sigma: 1 / 1.8},
			{Weight: 0.15, Sigma: 1.5},
		},
		Sizes: []ParticleSize{
			{Weight: 0.70, Radius: 1},
			{Weight: 0.15, Radius: 1.5},
			{Weight: 0.10, Radius: 2},
			{Weight: 0.05, Radius: 2.5},
		},
	}
}

// Brush is the paint state read by the engine.
type Brush struct {
	Color   color.NRGBA
	Radius  int
	Opacity int // percent, 0-100
	Eraser  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default tuning.
func WithConfig(cfg Config) Option { return func(e *Engine) { e.cfg = cfg } }

// Engine applies spray and eraser dabs to a drawing layer. It is not safe for
// concurrent use.
type Engine struct {
	cfg  Config
	rng  Source
	rast *vector.Rasterizer
	mask *image.Alpha
}

// New returns an Engine drawing randomness from rng.
func New(rng Source, opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig(), rng: rng, rast: vector.NewRasterizer(0, 0)}
	for _, o := range opts {
		o(e)
	}
	if e.cfg.Cutoff <= 0 {
		e.cfg.Cutoff = 2
	}
	if e.cfg.MaxAlpha == 0 {
		e.cfg.MaxAlpha = 255
	}
	if e.cfg.PassFraction <= 0 || e.cfg.PassFraction > 1 {
		e.cfg.PassFraction = 1
	}
	return e
}

// passCeiling is the highest alpha one application leaves on the scratch
// layer.
func (e *Engine) passCeiling() uint8 {
	c := uint8(math.Round(float64(e.cfg.MaxAlpha) * e.cfg.PassFraction))
	if c == 0 {
		c = 1
	}
	return c
}

// Config returns the engine tuning.
func (e *Engine) Config() Config { return e.cfg }

// Apply sprays or erases at pos depending on the brush mode and returns the
// region of the drawing layer that may have changed.
func (e *Engine) Apply(drawing *image.NRGBA, pos image.Point, b Brush) image.Rectangle {
	if b.Eraser {
		return e.EraseAt(drawing, pos, b.Radius)
	}
	return e.SprayAt(drawing, pos, b)
}

// EraseAt clears every drawing-layer pixel within radius of pos to fully
// transparent. Background and template are unaffected since they live in
// their own layers.
func (e *Engine) EraseAt(drawing *image.NRGBA, pos image.Point, radius int) image.Rectangle {
	if drawing == nil || radius < 0 {
		return image.Rectangle{}
	}
	render.EraseCircle(drawing, pos, radius)
	return image.Rect(pos.X-radius, pos.Y-radius, pos.X+radius+1, pos.Y+radius+1).Intersect(drawing.Bounds())
}

// SprayAt scatters one application of particles around pos onto drawing.
// Particles landing outside the canvas are skipped individually; a dab that
// misses the canvas entirely is a no-op.
func (e *Engine) SprayAt(drawing *image.NRGBA, pos image.Point, b Brush) image.Rectangle {
	if drawing == nil || b.Radius <= 0 || b.Opacity <= 0 {
		return image.Rectangle{}
	}
	radius := float64(b.Radius)
	reach := e.cfg.Cutoff * radius
	pad := int(math.Ceil(reach)) + 1
	area := image.Rect(pos.X-pad, pos.Y-pad, pos.X+pad+1, pos.Y+pad+1).Intersect(drawing.Bounds())
	if area.Empty() {
		return image.Rectangle{}
	}

	scratch := render.NewTransparent(area)
	count := int(radius * e.cfg.Density)
	if count < 1 {
		count = 1
	}
	cx := float64(pos.X) + 0.5
	cy := float64(pos.Y) + 0.5
	bounds := drawing.Bounds()
	opacity := math.Min(float64(b.Opacity), 100) / 100
	ceiling := e.passCeiling()

	for i := 0; i < count; i++ {
		var ox, oy float64
		// The first particle marks the nozzle itself.
		if i > 0 {
			sigma := e.sigma() * radius
			ox = e.rng.NormFloat64() * sigma
			oy = e.rng.NormFloat64() * sigma
		}
		size := e.size()
		if i == 0 && size+1 > reach {
			size = math.Max(reach-1, 0.5)
		}
		dist := math.Hypot(ox, oy)
		// The whole disc, including the anti-aliased rim, stays inside the reach.
		if dist+size+1 > reach {
			continue
		}
		px, py := cx+ox, cy+oy
		if px < float64(bounds.Min.X) || py < float64(bounds.Min.Y) || px >= float64(bounds.Max.X) || py >= float64(bounds.Max.Y) {
			continue
		}
		alpha := 255 * e.falloff(dist, radius, reach) * opacity * e.jitter()
		if alpha > float64(ceiling) {
			alpha = float64(ceiling)
		}
		a := uint8(alpha)
		if a == 0 {
			continue
		}
		e.dab(scratch, px, py, size, color.NRGBA{R: b.Color.R, G: b.Color.G, B: b.Color.B, A: a}, ceiling)
	}

	render.DrawOverCeiling(drawing, scratch, area.Min, e.cfg.MaxAlpha)
	return area
}

// falloff maps a particle's distance from the nozzle to an opacity factor.
// Inside the radius it is (1 - d/r)^p; splatter beyond the radius fades
// linearly from SplatterOpacity to zero at the reach.
func (e *Engine) falloff(dist, radius, reach float64) float64 {
	if dist <= radius {
		return math.Pow(1-dist/radius, e.cfg.Falloff)
	}
	if reach <= radius {
		return 0
	}
	return e.cfg.SplatterOpacity * (1 - (dist-radius)/(reach-radius))
}

func (e *Engine) jitter() float64 {
	lo := e.cfg.MinJitter
	return lo + (1-lo)*e.rng.Float64()
}

func (e *Engine) sigma() float64 {
	mix := e.cfg.Mixture
	if len(mix) == 0 {
		return 1 / 2.5
	}
	total := 0.0
	for _, c := range mix {
		total += c.Weight
	}
	u := e.rng.Float64() * total
	for _, c := range mix {
		if u < c.Weight {
			return c.Sigma
		}
		u -= c.Weight
	}
	return mix[len(mix)-1].Sigma
}

func (e *Engine) size() float64 {
	sizes := e.cfg.Sizes
	if len(sizes) == 0 {
		return 1
	}
	total := 0.0
	for _, s := range sizes {
		total += s.Weight
	}
	u := e.rng.Float64() * total
	for _, s := range sizes {
		if u < s.Weight {
			return s.Radius
		}
		u -= s.Weight
	}
	return sizes[len(sizes)-1].Radius
}

// dab rasterizes a filled disc of radius r centred on (x, y) and blends it onto
// dst with colour c, keeping dst's alpha at or below ceiling.
func (e *Engine) dab(dst *image.NRGBA, x, y, r float64, c color.NRGBA, ceiling uint8) {
	box := image.Rect(
		int(math.Floor(x-r))-1, int(math.Floor(y-r))-1,
		int(math.Ceil(x+r))+1, int(math.Ceil(y+r))+1,
	)
	w, h := box.Dx(), box.Dy()
	if e.mask == nil || e.mask.Bounds().Dx() < w || e.mask.Bounds().Dy() < h {
		e.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	}
	mask := e.mask.SubImage(image.Rect(0, 0, w, h)).(*image.Alpha)

	e.rast.Reset(w, h)
	e.rast.DrawOp = draw.Src
	disc(e.rast, float32(x-float64(box.Min.X)), float32(y-float64(box.Min.Y)), float32(r))
	e.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	render.DrawUniformMask(dst, mask, box.Min, c, ceiling)
}

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847498

func disc(z *vector.Rasterizer, cx, cy, r float32) {
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
}
