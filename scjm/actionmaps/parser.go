// Package actionmaps reads and writes the control-option subset of the
// game's actionmaps.xml dialect: <options> elements per device, the
// named option elements inside them, and nested nonlinearity_curve
// point lists. It is not a general XML layer - everything outside that
// subset is passed over on parse and preserved verbatim on apply.
package actionmaps

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// SyntaxError reports malformed vendor XML, carrying the lexer's
// diagnostic.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("XML parse error: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// DeviceOptions is one <options> element: the per-device tuning block
// for a keyboard, gamepad or joystick instance.
type DeviceOptions struct {
	Type     string          `json:"device_type"`
	Instance string          `json:"instance"`
	Product  string          `json:"product"`
	Options  []ControlOption `json:"options"`
}

// ControlOption is one named option element. Attribute order and curve
// point order are kept exactly as they appear in the source, and
// values stay raw strings so the game's own formatting survives a
// round trip.
type ControlOption struct {
	Name        string       `json:"name"`
	Attributes  []Attribute  `json:"attributes"`
	CurvePoints []CurvePoint `json:"curve_points"`
}

// Attribute is a single key="value" pair.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CurvePoint is one <point in=".." out=".."/> inside a
// nonlinearity_curve block.
type CurvePoint struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// ParseOptions extracts every device options block from a vendor
// document, in document order. Zero devices is a valid result; the
// surrounding document (action maps, rebinds, anything else) is not
// collected. Malformed XML returns a *SyntaxError.
func ParseOptions(data []byte) ([]DeviceOptions, error) {
	scan, err := scanOptions(data)
	if err != nil {
		return nil, err
	}
	return scan.devices, nil
}

// scanState is the position of the scan relative to the constructs we
// recognise. Tracking it as one tag keeps impossible combinations,
// like collecting curve points with no open option, out of reach.
type scanState int

const (
	scanDocument scanState = iota // outside any options element
	scanDevice                    // inside <options>, between option elements
	scanCurve                     // inside an option's <nonlinearity_curve>
)

// span is the byte range [start, end) of one top-level options element
// in the source document. apply.go uses these to splice regenerated
// elements back in without touching the rest of the file.
type span struct {
	start int64
	end   int64
}

type optionsScan struct {
	state   scanState
	device  *DeviceOptions
	option  *ControlOption
	skip    int // depth of an unrecognised subtree being passed over
	started int64

	devices []DeviceOptions
	spans   []span
}

// scanOptions runs a single-pass token scan over the document. The
// decoder hands back self-closing and open/close elements as the same
// start/end token pair, so both spellings land in the same states.
func scanOptions(data []byte) (*optionsScan, error) {
	scan := &optionsScan{devices: make([]DeviceOptions, 0)}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		offset := decoder.InputOffset()
		token, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			// Includes unexpected EOF with elements still open; the
			// decoder reports that as a syntax error, not io.EOF.
			return nil, &SyntaxError{Err: err}
		}

		switch el := token.(type) {
		case xml.StartElement:
			scan.startElement(el, offset)
		case xml.EndElement:
			scan.endElement(el, decoder.InputOffset())
		}
	}
	return scan, nil
}

func (s *optionsScan) startElement(el xml.StartElement, offset int64) {
	if s.skip > 0 {
		s.skip++
		return
	}

	name := el.Name.Local
	switch s.state {
	case scanDocument:
		// Only options blocks matter at the top level; the document
		// wrapper and the actionmap bindings are not ours to collect.
		if name == "options" {
			s.openDevice(el, offset)
		}
	case scanDevice:
		switch {
		case name == "options":
			// The vendor never nests these; treat it as the next block.
			s.openDevice(el, offset)
		case name == "nonlinearity_curve":
			if s.option != nil {
				s.state = scanCurve
			} else {
				s.skip = 1
			}
		case s.option == nil:
			s.option = &ControlOption{
				Name:       name,
				Attributes: attributePairs(el.Attr),
			}
		default:
			// A child of an option other than its curve block.
			s.skip = 1
		}
	case scanCurve:
		if name == "point" {
			s.option.CurvePoints = append(s.option.CurvePoints, pointFromAttrs(el.Attr))
		}
	}
}

func (s *optionsScan) endElement(el xml.EndElement, offset int64) {
	if s.skip > 0 {
		s.skip--
		return
	}

	name := el.Name.Local
	switch s.state {
	case scanDevice:
		switch {
		case name == "options":
			s.devices = append(s.devices, *s.device)
			s.spans = append(s.spans, span{start: s.started, end: offset})
			s.device = nil
			s.option = nil
			s.state = scanDocument
		case s.option != nil:
			s.device.Options = append(s.device.Options, *s.option)
			s.option = nil
		}
	case scanCurve:
		if name == "nonlinearity_curve" {
			s.state = scanDevice
		}
	}
}

func (s *optionsScan) openDevice(el xml.StartElement, offset int64) {
	device := DeviceOptions{Options: make([]ControlOption, 0)}
	for _, attr := range el.Attr {
		switch attr.Name.Local {
		case "type":
			device.Type = attrEscaper.Replace(attr.Value)
		case "instance":
			device.Instance = attrEscaper.Replace(attr.Value)
		case "Product":
			device.Product = attrEscaper.Replace(attr.Value)
		}
	}
	s.device = &device
	s.option = nil
	s.started = offset
	s.state = scanDevice
}

// attrEscaper restores the predefined entities the decoder resolves, so
// captured values keep the lexical form they had in the document. The
// generator emits values verbatim and anything stored here must already
// be XML-safe.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func attributePairs(attrs []xml.Attr) []Attribute {
	pairs := make([]Attribute, 0, len(attrs))
	for _, attr := range attrs {
		pairs = append(pairs, Attribute{Key: attr.Name.Local, Value: attrEscaper.Replace(attr.Value)})
	}
	return pairs
}

func pointFromAttrs(attrs []xml.Attr) CurvePoint {
	var point CurvePoint
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "in":
			point.In = attrEscaper.Replace(attr.Value)
		case "out":
			point.Out = attrEscaper.Replace(attr.Value)
		}
	}
	return point
}
