package render

import (
	"image"
	"image/color"
)

// AlphaComposite returns top blended over bottom with the source-over
// operator. Neither input is modified. When the sizes differ top is placed at
// the origin of bottom and clipped.
func AlphaComposite(top, bottom *image.NRGBA) *image.NRGBA {
	out := Copy(bottom)
	if out == nil {
		return Copy(top)
	}
	if top != nil {
		DrawOver(out, top, image.Point{})
	}
	return out
}

// DrawOver blends src over dst in place with src's top-left corner at off.
// Parts of src that fall outside dst are skipped.
func DrawOver(dst, src *image.NRGBA, off image.Point) {
	blendInto(dst, src, off, 255)
}

// DrawOverCeiling behaves like DrawOver but never raises a destination alpha
// above ceiling. Pixels that are already more opaque than ceiling keep their
// alpha.
func DrawOverCeiling(dst, src *image.NRGBA, off image.Point, ceiling uint8) {
	blendInto(dst, src, off, ceiling)
}

// PasteWithMask copies src into dst at (offsetX, offsetY). With
// useSourceAlphaAsMask the source alpha acts as a stencil and the copy is an
// over-blend; without it the covered pixels are replaced outright.
// Out-of-bounds regions are clipped silently.
func PasteWithMask(src, dst *image.NRGBA, offsetX, offsetY int, useSourceAlphaAsMask bool) {
	if useSourceAlphaAsMask {
		blendInto(dst, src, image.Pt(offsetX, offsetY), 255)
		return
	}
	if src == nil || dst == nil {
		return
	}
	sb := src.Bounds()
	target := sb.Sub(sb.Min).Add(image.Pt(offsetX, offsetY)).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	rowLen := target.Dx() * 4
	for y := target.Min.Y; y < target.Max.Y; y++ {
		si := src.PixOffset(sb.Min.X+target.Min.X-offsetX, sb.Min.Y+y-offsetY)
		di := dst.PixOffset(target.Min.X, y)
		copy(dst.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
}

func blendInto(dst, src *image.NRGBA, off image.Point, ceiling uint8) {
	if src == nil || dst == nil {
		return
	}
	sb := src.Bounds()
	target := sb.Sub(sb.Min).Add(off).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	for y := target.Min.Y; y < target.Max.Y; y++ {
		si := src.PixOffset(sb.Min.X+target.Min.X-off.X, sb.Min.Y+y-off.Y)
		di := dst.PixOffset(target.Min.X, y)
		for x := target.Min.X; x < target.Max.X; x++ {
			over(dst.Pix[di:di+4:di+4], src.Pix[si:si+4:si+4], ceiling)
			si += 4
			di += 4
		}
	}
}

// over applies straight-alpha source-over to a single pixel:
// a = as + ad(1-as), c = (cs*as + cd*ad*(1-as)) / a.
func over(d, s []uint8, ceiling uint8) {
	sa := uint32(s[3])
	if sa == 0 {
		return
	}
	da := uint32(d[3])
	if da == 0 || (sa == 255 && ceiling == 255) {
		d[0], d[1], d[2] = s[0], s[1], s[2]
		d[3] = min(s[3], max(ceiling, d[3]))
		return
	}
	a255 := sa*255 + da*(255-sa)
	wd := da * (255 - sa)
	ws := sa * 255
	d[0] = uint8((uint32(s[0])*ws + uint32(d[0])*wd + a255/2) / a255)
	d[1] = uint8((uint32(s[1])*ws + uint32(d[1])*wd + a255/2) / a255)
	d[2] = uint8((uint32(s[2])*ws + uint32(d[2])*wd + a255/2) / a255)
	a := uint8((a255 + 127) / 255)
	if a > ceiling && a > d[3] {
		a = max(ceiling, d[3])
	}
	d[3] = a
}

// DrawUniformMask blends c over dst through a coverage mask whose top-left
// corner sits at at. Each pixel receives c with its alpha scaled by the mask
// value. Blending never raises a pixel's alpha above ceiling.
func DrawUniformMask(dst *image.NRGBA, mask *image.Alpha, at image.Point, c color.NRGBA, ceiling uint8) {
	if dst == nil || mask == nil || c.A == 0 {
		return
	}
	mb := mask.Bounds()
	target := mb.Sub(mb.Min).Add(at).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}
	px := []uint8{c.R, c.G, c.B, 0}
	for y := target.Min.Y; y < target.Max.Y; y++ {
		mi := mask.PixOffset(mb.Min.X+target.Min.X-at.X, mb.Min.Y+y-at.Y)
		di := dst.PixOffset(target.Min.X, y)
		for x := target.Min.X; x < target.Max.X; x++ {
			if cov := uint32(mask.Pix[mi]); cov != 0 {
				px[3] = uint8((uint32(c.A)*cov + 127) / 255)
				over(dst.Pix[di:di+4:di+4], px, ceiling)
			}
			mi++
			di += 4
		}
	}
}

// ScaleAlpha multiplies the alpha channel of buf by factor in [0, 1].
func ScaleAlpha(buf *image.NRGBA, factor float64) {
	if buf == nil {
		return
	}
	if factor >= 1 {
		return
	}
	if factor < 0 {
		factor = 0
	}
	b := buf.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := buf.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			buf.Pix[i+3] = uint8(float64(buf.Pix[i+3])*factor + 0.5)
			i += 4
		}
	}
}

// Flatten returns buf composited over an opaque backdrop. The result has every
// alpha at 255.
func Flatten(buf *image.NRGBA, backdrop color.NRGBA) *image.NRGBA {
	if buf == nil {
		return nil
	}
	backdrop.A = 255
	out := image.NewNRGBA(image.Rect(0, 0, buf.Bounds().Dx(), buf.Bounds().Dy()))
	Fill(out, backdrop)
	DrawOver(out, buf, image.Point{})
	return out
}

// EraseCircle makes every pixel of buf within radius of center fully
// transparent. Pixels outside the disc are not touched.
func EraseCircle(buf *image.NRGBA, center image.Point, radius int) {
	if buf == nil || radius < 0 {
		return
	}
	area := image.Rect(center.X-radius, center.Y-radius, center.X+radius+1, center.Y+radius+1).Intersect(buf.Bounds())
	if area.Empty() {
		return
	}
	r2 := radius * radius
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := y - center.Y
		i := buf.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x++ {
			dx := x - center.X
			if dx*dx+dy*dy <= r2 {
				buf.Pix[i+0] = 0
				buf.Pix[i+1] = 0
				buf.Pix[i+2] = 0
				buf.Pix[i+3] = 0
			}
			i += 4
		}
	}
}
