package chartctl

import "fmt"

// LineStyle maps the human style names onto the integer enum the chart
// library uses.
type LineStyle string

const (
	LineSolid        LineStyle = "solid"
	LineDotted       LineStyle = "dotted"
	LineDashed       LineStyle = "dashed"
	LineLargeDashed  LineStyle = "large_dashed"
	LineSparseDotted LineStyle = "sparse_dotted"
)

func (s LineStyle) jsEnum() (int, error) {
	switch s {
	case LineSolid, "":
		return 0, nil
	case LineDotted:
		return 1, nil
	case LineDashed:
		return 2, nil
	case LineLargeDashed:
		return 3, nil
	case LineSparseDotted:
		return 4, nil
	}
	return 0, newError(CodeValidation, fmt.Sprintf("unknown line style %q", string(s)), nil)
}

// legendSymbol is the glyph shown next to a line's legend entry when the
// caller did not pick one.
func (s LineStyle) legendSymbol() string {
	switch s {
	case LineDotted:
		return "··"
	case LineDashed:
		return "--"
	case LineLargeDashed:
		return "- -"
	case LineSparseDotted:
		return "· ·"
	default:
		return "―"
	}
}

// MarkerPosition places a marker relative to its bar.
type MarkerPosition string

const (
	MarkerAbove  MarkerPosition = "above"
	MarkerBelow  MarkerPosition = "below"
	MarkerInside MarkerPosition = "inside"
)

func (p MarkerPosition) jsValue() (string, error) {
	switch p {
	case MarkerAbove:
		return "aboveBar", nil
	case MarkerBelow, "":
		return "belowBar", nil
	case MarkerInside:
		return "inBar", nil
	}
	return "", newError(CodeValidation, fmt.Sprintf("unknown marker position %q", string(p)), nil)
}

// MarkerShape selects the marker glyph.
type MarkerShape string

const (
	MarkerArrowUp   MarkerShape = "arrow_up"
	MarkerArrowDown MarkerShape = "arrow_down"
	MarkerCircle    MarkerShape = "circle"
	MarkerSquare    MarkerShape = "square"
)

func (s MarkerShape) jsValue() (string, error) {
	switch s {
	case MarkerArrowUp, "":
		return "arrowUp", nil
	case MarkerArrowDown:
		return "arrowDown", nil
	case MarkerCircle:
		return "circle", nil
	case MarkerSquare:
		return "square", nil
	}
	return "", newError(CodeValidation, fmt.Sprintf("unknown marker shape %q", string(s)), nil)
}

// CrosshairMode controls crosshair snapping.
type CrosshairMode string

const (
	CrosshairNormal CrosshairMode = "normal"
	CrosshairMagnet CrosshairMode = "magnet"
)

func (m CrosshairMode) jsEnum() (int, error) {
	switch m {
	case CrosshairNormal, "":
		return 0, nil
	case CrosshairMagnet:
		return 1, nil
	}
	return 0, newError(CodeValidation, fmt.Sprintf("unknown crosshair mode %q", string(m)), nil)
}

// PriceScaleMode controls how prices map onto the scale.
type PriceScaleMode string

const (
	PriceScaleNormal       PriceScaleMode = "normal"
	PriceScaleLogarithmic  PriceScaleMode = "logarithmic"
	PriceScalePercentage   PriceScaleMode = "percentage"
	PriceScaleIndexedTo100 PriceScaleMode = "indexed_to_100"
)

func (m PriceScaleMode) jsEnum() (int, error) {
	switch m {
	case PriceScaleNormal, "":
		return 0, nil
	case PriceScaleLogarithmic:
		return 1, nil
	case PriceScalePercentage:
		return 2, nil
	case PriceScaleIndexedTo100:
		return 3, nil
	}
	return 0, newError(CodeValidation, fmt.Sprintf("unknown price scale mode %q", string(m)), nil)
}
