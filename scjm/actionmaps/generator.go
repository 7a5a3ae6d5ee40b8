package actionmaps

import (
	"fmt"
	"strings"
)

// GenerateOptionsXML renders one device options block as the game
// writes it. The layout is a wire format, not a style choice: the
// vendor indents one space per depth (options sits at depth two) and
// the file must diff cleanly against game-written blocks, so the
// indentation here is fixed. Attribute values are emitted verbatim;
// supplying XML-safe values is the producer's job.
func GenerateOptionsXML(device DeviceOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  <options type=\"%s\" instance=\"%s\"", device.Type, device.Instance)
	if device.Product != "" {
		fmt.Fprintf(&b, " Product=\"%s\"", device.Product)
	}
	if len(device.Options) == 0 {
		b.WriteString("/>\n")
		return b.String()
	}
	b.WriteString(">\n")

	for _, opt := range device.Options {
		fmt.Fprintf(&b, "   <%s", opt.Name)
		for _, attr := range opt.Attributes {
			fmt.Fprintf(&b, " %s=\"%s\"", attr.Key, attr.Value)
		}
		if len(opt.CurvePoints) == 0 {
			b.WriteString("/>\n")
			continue
		}
		b.WriteString(">\n")
		b.WriteString("    <nonlinearity_curve>\n")
		for _, point := range opt.CurvePoints {
			fmt.Fprintf(&b, "     <point in=\"%s\" out=\"%s\"/>\n", point.In, point.Out)
		}
		b.WriteString("    </nonlinearity_curve>\n")
		fmt.Fprintf(&b, "   </%s>\n", opt.Name)
	}

	b.WriteString("  </options>\n")
	return b.String()
}
