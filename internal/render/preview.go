package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/civmap/internal/geo"

	"github.com/chai2010/webp"
	"golang.org/x/image/colornames"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

const (
	tileSize       = 256.0
	supersample    = 2
	markerRadiusPx = 5.0
	minCirclePx    = 2.0
	circleSegments = 64
	previewPadding = 24.0
)

var (
	previewBackground = color.RGBA{R: 0xee, G: 0xee, B: 0xe8, A: 0xff}
	markerFill        = color.RGBA{R: 0x2a, G: 0x81, B: 0xcb, A: 0xff}
	markerStroke      = color.RGBA{R: 0x1b, G: 0x3a, B: 0x57, A: 0xff}
)

// PreviewOptions sizes the raster snapshot.
type PreviewOptions struct {
	Width   int
	Height  int
	Quality int
}

// Rasterize draws every primitive onto a Web Mercator canvas fitted to the
// map bounds. Without primitives the map center and zoom are used.
func (m *Map) Rasterize(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", width, height)
	}

	w, h := width*supersample, height*supersample
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	proj := m.fit(float64(w), float64(h))

	// circles first so markers stay visible on top
	for _, p := range m.primitives {
		if p.Kind != KindCircle {
			continue
		}
		cx, cy := proj.point(p.Position)
		r := proj.meters(p.Radius, p.Position.Lat())
		if r < minCirclePx*supersample {
			r = minCirclePx * supersample
		}

		stroke := ParseColor(p.Color)
		fill := color.NRGBA{R: stroke.R, G: stroke.G, B: stroke.B, A: uint8(math.Round(255 * p.FillOpacity))}

		fillDisc(canvas, cx, cy, r, fill)
		fillRing(canvas, cx, cy, r, r-1.5*supersample, stroke)
	}

	for _, p := range m.primitives {
		if p.Kind != KindMarker {
			continue
		}
		cx, cy := proj.point(p.Position)
		r := markerRadiusPx * supersample
		fillDisc(canvas, cx, cy, r, markerFill)
		fillRing(canvas, cx, cy, r, r-1.0*supersample, markerStroke)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)

	return out, nil
}

// Preview encodes the rasterized map as WebP.
func (m *Map) Preview(w io.Writer, opts PreviewOptions) error {
	img, err := m.Rasterize(opts.Width, opts.Height)
	if err != nil {
		return err
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
}

// ParseColor resolves an SVG color name or a #rgb / #rrggbb value.
// Unknown values fall back to the marker color.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
			}
		}
	}

	return markerFill
}

// projection maps Mercator unit coordinates onto canvas pixels.
type projection struct {
	originX, originY float64 // unit coords of the canvas center
	scale            float64 // pixels per unit
	width, height    float64
}

func (p projection) point(ll geo.LatLng) (x, y float64) {
	ux, uy := geo.LatLngToMercator(ll)
	return (ux-p.originX)*p.scale + p.width/2, (uy-p.originY)*p.scale + p.height/2
}

func (p projection) meters(m, lat float64) float64 {
	return m / geo.MetersPerUnit(lat) * p.scale
}

func (m *Map) fit(w, h float64) projection {
	maxScale := tileSize * math.Exp2(float64(m.TileLayer.Options.MaxZoom)) * supersample
	zoomScale := tileSize * math.Exp2(float64(m.Zoom)) * supersample

	if len(m.primitives) == 0 {
		cx, cy := geo.LatLngToMercator(m.Center)
		return projection{originX: cx, originY: cy, scale: zoomScale, width: w, height: h}
	}

	b := m.Bounds()
	minX, maxY := geo.LatLngToMercator(geo.FromPoint(b.Min))
	maxX, minY := geo.LatLngToMercator(geo.FromPoint(b.Max))

	pad := previewPadding * supersample
	scale := maxScale
	if dx := maxX - minX; dx > 0 {
		scale = math.Min(scale, (w-2*pad)/dx)
	}
	if dy := maxY - minY; dy > 0 {
		scale = math.Min(scale, (h-2*pad)/dy)
	}
	if maxX-minX == 0 && maxY-minY == 0 {
		scale = zoomScale
	}

	return projection{
		originX: (minX + maxX) / 2,
		originY: (minY + maxY) / 2,
		scale:   scale,
		width:   w,
		height:  h,
	}
}

func circlePath(z *vector.Rasterizer, cx, cy, r float64, clockwise bool) {
	step := 2 * math.Pi / circleSegments
	if clockwise {
		step = -step
	}

	z.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < circleSegments; i++ {
		a := float64(i) * step
		z.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	z.ClosePath()
}

// shapeBox returns the canvas area covered by a circle of radius r.
func shapeBox(dst *image.RGBA, cx, cy, r float64) image.Rectangle {
	box := image.Rect(
		int(math.Floor(cx-r))-1, int(math.Floor(cy-r))-1,
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	)
	return box.Intersect(dst.Bounds())
}

func fillDisc(dst *image.RGBA, cx, cy, r float64, c color.Color) {
	fillRing(dst, cx, cy, r, -1, c)
}

// fillRing fills the area between two circles; a negative inner radius
// fills the whole disc.
func fillRing(dst *image.RGBA, cx, cy, outer, inner float64, c color.Color) {
	box := shapeBox(dst, cx, cy, outer)
	if box.Empty() {
		return
	}

	ox, oy := cx-float64(box.Min.X), cy-float64(box.Min.Y)

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	circlePath(z, ox, oy, outer, false)
	if inner > 0 {
		circlePath(z, ox, oy, inner, true)
	}
	z.Draw(dst, box, image.NewUniform(c), image.Point{})
}
