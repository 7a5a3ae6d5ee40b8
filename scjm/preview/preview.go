// Package preview renders a control option's response curve to an
// image so the UI can show what a binding will feel like in game.
package preview

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
	"github.com/pixiv/go-libjpeg/jpeg"
	"golang.org/x/image/font"

	"github.com/scjoymapper/scjoymapper/scjm/common"
	"github.com/scjoymapper/scjoymapper/scjm/controls"
)

// Defaults used when the Preview config block leaves fields unset
const (
	defaultWidth      = 480
	defaultHeight     = 480
	defaultGridSteps  = 10
	defaultFontSize   = 14
	defaultJpgQuality = 90
)

const (
	defaultBackgroundColour = "#14161c"
	defaultGridColour       = "#262a33"
	defaultAxisColour       = "#4a5060"
	defaultCurveColour      = "#4fc1ff"
	defaultPointColour      = "#ffb347"
	defaultTextColour       = "#d4d7dd"
)

type point struct {
	x, y float64
}

// Render draws the response curve described by the settings onto a new
// context. The label is drawn above the plot.
func Render(set controls.ControlOptionSettings, label string,
	cfg *common.PreviewData, log *common.Logger) *gg.Context {

	w, h := cfg.Image.W, cfg.Image.H
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	insetX, insetY := cfg.Inset.X, cfg.Inset.Y
	if insetX <= 0 {
		insetX = 36
	}
	if insetY <= 0 {
		insetY = 28
	}
	plotW := float64(w) - 2*insetX
	plotH := float64(h) - 2*insetY

	// Map normalised curve space onto the plot rectangle, y up
	px := func(x float64) float64 { return insetX + x*plotW }
	py := func(y float64) float64 { return float64(h) - insetY - y*plotH }

	dc := gg.NewContext(w, h)
	dc.SetHexColor(colourOr(cfg.BackgroundColour, defaultBackgroundColour))
	dc.Clear()

	steps := cfg.GridSteps
	if steps <= 0 {
		steps = defaultGridSteps
	}
	dc.SetHexColor(colourOr(cfg.GridColour, defaultGridColour))
	dc.SetLineWidth(1)
	for i := 1; i < steps; i++ {
		f := float64(i) / float64(steps)
		dc.DrawLine(px(f), py(0), px(f), py(1))
		dc.DrawLine(px(0), py(f), px(1), py(f))
	}
	dc.Stroke()

	dc.SetHexColor(colourOr(cfg.AxisColour, defaultAxisColour))
	dc.SetLineWidth(2)
	dc.DrawLine(px(0), py(0), px(1), py(0))
	dc.DrawLine(px(0), py(0), px(0), py(1))
	dc.Stroke()

	response := responseFunc(set)
	samples := int(plotW)
	if samples < 2 {
		samples = 2
	}
	dc.SetHexColor(colourOr(cfg.CurveColour, defaultCurveColour))
	dc.SetLineWidth(2)
	for i := 0; i <= samples; i++ {
		x := float64(i) / float64(samples)
		if i == 0 {
			dc.MoveTo(px(x), py(response(x)))
		} else {
			dc.LineTo(px(x), py(response(x)))
		}
	}
	dc.Stroke()

	if markers := markerPoints(set); len(markers) > 0 {
		dc.SetHexColor(colourOr(cfg.PointColour, defaultPointColour))
		for _, p := range markers {
			y := p.y
			if set.Invert != nil && *set.Invert {
				y = 1 - y
			}
			dc.DrawCircle(px(p.x), py(y), 3.5)
			dc.Fill()
		}
	}

	// font.Face is not thread safe, keep the cache local to this render
	fontCache := common.NewFontFaceCache()
	if face := labelFace(cfg, fontCache, log); face != nil {
		dc.SetFontFace(face)
	}
	dc.SetHexColor(colourOr(cfg.TextColour, defaultTextColour))
	if label != "" {
		dc.DrawString(label, insetX, insetY-8)
	}
	dc.DrawStringAnchored("0", px(0), py(0)+6, 1.2, 1)
	dc.DrawStringAnchored("1", px(1), py(0)+6, 0.5, 1)
	dc.DrawStringAnchored("1", px(0)-6, py(1), 1, 0.5)
	return dc
}

// EncodePNG encodes the rendered context as PNG
func EncodePNG(dc *gg.Context) (bytes.Buffer, error) {
	var imgBytes bytes.Buffer
	err := dc.EncodePNG(&imgBytes)
	return imgBytes, err
}

// EncodeJPG encodes the rendered context as JPEG at the given quality
func EncodeJPG(dc *gg.Context, quality int) (bytes.Buffer, error) {
	if quality <= 0 {
		quality = defaultJpgQuality
	}
	var imgBytes bytes.Buffer
	err := jpeg.Encode(&imgBytes, dc.Image(), &jpeg.EncoderOptions{Quality: quality})
	return imgBytes, err
}

// responseFunc builds the normalised input to output mapping for the
// settings. Curve mode wins over exponent when both carry data, the
// same precedence the editor applies.
func responseFunc(set controls.ControlOptionSettings) func(float64) float64 {
	response := func(x float64) float64 { return x }
	switch {
	case set.CurveMode == controls.CurveModeCurve && set.Curve != nil &&
		len(set.Curve.Points) > 0:
		points := normalizePoints(set.Curve.Points)
		response = func(x float64) float64 { return interpolate(points, x) }
	case set.Exponent != nil && *set.Exponent > 0:
		exponent := *set.Exponent
		response = func(x float64) float64 { return math.Pow(x, exponent) }
	}
	if set.Invert != nil && *set.Invert {
		inner := response
		response = func(x float64) float64 { return 1 - inner(x) }
	}
	return response
}

// markerPoints picks the control points to mark on the plot. A curve
// with no points of its own draws without markers; the padded unit
// endpoints only anchor the line and are not user data.
func markerPoints(set controls.ControlOptionSettings) []point {
	if set.CurveMode != controls.CurveModeCurve || set.Curve == nil ||
		len(set.Curve.Points) == 0 {
		return nil
	}
	return normalizePoints(set.Curve.Points)
}

// normalizePoints maps curve points into unit space, sorted by input.
// Points already inside the unit range pass through unchanged.
func normalizePoints(pts []controls.CurvePoint) []point {
	maxIn, maxOut := 1.0, 1.0
	for _, p := range pts {
		if p.In > maxIn {
			maxIn = p.In
		}
		if p.Out > maxOut {
			maxOut = p.Out
		}
	}
	points := make([]point, 0, len(pts)+2)
	for _, p := range pts {
		points = append(points, point{p.In / maxIn, p.Out / maxOut})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].x < points[j].x
	})
	if len(points) == 0 || points[0].x > 0 {
		points = append([]point{{0, 0}}, points...)
	}
	if last := points[len(points)-1]; last.x < 1 {
		points = append(points, point{1, 1})
	}
	return points
}

// interpolate evaluates the piecewise linear curve at x
func interpolate(points []point, x float64) float64 {
	if x <= points[0].x {
		return points[0].y
	}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if x > b.x {
			continue
		}
		if b.x == a.x {
			return b.y
		}
		t := (x - a.x) / (b.x - a.x)
		return a.y + t*(b.y-a.y)
	}
	return points[len(points)-1].y
}

// labelFace loads the configured label font, or nil to keep the
// context's built in face
func labelFace(cfg *common.PreviewData, fontCache common.FontFaceCache,
	log *common.Logger) font.Face {
	if cfg.Font == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(cfg.FontsDir, cfg.Font)); err != nil {
		log.Err("font %s not available. %v", cfg.Font, err)
		return nil
	}
	size := int(math.Round(cfg.FontSize))
	if size <= 0 {
		size = defaultFontSize
	}
	return fontCache.LoadFont(cfg.FontsDir, cfg.Font, size)
}

func colourOr(colour string, fallback string) string {
	if colour == "" {
		return fallback
	}
	return colour
}
