package chartctl

// Option structs mirror the chart library's applyOptions payloads. Each has a
// Default* constructor carrying the library defaults; callers tweak fields
// and pass the struct to the matching Chart method, which serializes it to a
// JS object literal.

// ChartOptions configures a top-level chart handler.
type ChartOptions struct {
	Width            float64
	Height           float64
	Position         string
	Autosize         bool
	ScaleCandlesOnly bool
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 1.0, Height: 1.0, Position: "left", Autosize: true}
}

// SubChartOptions configures a chart created inside an existing window.
// SyncID ties the subchart's time scale to another chart's.
type SubChartOptions struct {
	Position           string
	Width              float64
	Height             float64
	SyncID             string
	SyncCrosshairsOnly bool
	ScaleCandlesOnly   bool
}

func DefaultSubChartOptions() SubChartOptions {
	return SubChartOptions{Position: "left", Width: 0.5, Height: 0.5}
}

// TimeScaleOptions styles the chart's time axis.
type TimeScaleOptions struct {
	RightOffset    int     `json:"rightOffset"`
	MinBarSpacing  float64 `json:"minBarSpacing"`
	Visible        bool    `json:"visible"`
	TimeVisible    bool    `json:"timeVisible"`
	SecondsVisible bool    `json:"secondsVisible"`
	BorderVisible  bool    `json:"borderVisible"`
	BorderColor    string  `json:"borderColor,omitempty"`
}

func DefaultTimeScaleOptions() TimeScaleOptions {
	return TimeScaleOptions{
		MinBarSpacing: 0.5,
		Visible:       true,
		TimeVisible:   true,
		BorderVisible: true,
	}
}

// LayoutOptions styles the chart background and text.
type LayoutOptions struct {
	BackgroundColor string
	TextColor       string
	FontSize        int
	FontFamily      string
}

func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{BackgroundColor: "#000000"}
}

// GridOptions styles the chart grid lines.
type GridOptions struct {
	VertEnabled bool
	HorzEnabled bool
	Color       string
	Style       LineStyle
}

func DefaultGridOptions() GridOptions {
	return GridOptions{
		VertEnabled: true,
		HorzEnabled: true,
		Color:       "rgba(29, 30, 38, 5)",
		Style:       LineSolid,
	}
}

// CrosshairOptions styles the crosshair axes.
type CrosshairOptions struct {
	Mode CrosshairMode

	VertVisible              bool
	VertWidth                int
	VertColor                string
	VertStyle                LineStyle
	VertLabelBackgroundColor string

	HorzVisible              bool
	HorzWidth                int
	HorzColor                string
	HorzStyle                LineStyle
	HorzLabelBackgroundColor string
}

func DefaultCrosshairOptions() CrosshairOptions {
	return CrosshairOptions{
		Mode:                     CrosshairNormal,
		VertVisible:              true,
		VertWidth:                1,
		VertStyle:                LineLargeDashed,
		VertLabelBackgroundColor: "rgb(46, 46, 46)",
		HorzVisible:              true,
		HorzWidth:                1,
		HorzStyle:                LineLargeDashed,
		HorzLabelBackgroundColor: "rgb(55, 55, 55)",
	}
}

// WatermarkOptions places centered text behind the series.
type WatermarkOptions struct {
	Text     string `json:"text"`
	FontSize int    `json:"fontSize"`
	Color    string `json:"color"`
}

func DefaultWatermarkOptions(text string) WatermarkOptions {
	return WatermarkOptions{Text: text, FontSize: 44, Color: "rgba(180, 180, 200, 0.5)"}
}

// LegendOptions configures the in-chart legend.
type LegendOptions struct {
	Visible            bool
	OHLC               bool
	Percent            bool
	Lines              bool
	Color              string
	FontSize           int
	FontFamily         string
	Text               string
	ColorBasedOnCandle bool
}

func DefaultLegendOptions() LegendOptions {
	return LegendOptions{
		OHLC:       true,
		Percent:    true,
		Lines:      true,
		Color:      "rgb(191, 195, 203)",
		FontSize:   11,
		FontFamily: "Monaco",
	}
}

// PriceScaleOptions styles a series' price scale.
type PriceScaleOptions struct {
	AutoScale         bool
	Mode              PriceScaleMode
	InvertScale       bool
	AlignLabels       bool
	ScaleMarginTop    float64
	ScaleMarginBottom float64
	BorderVisible     bool
	BorderColor       string
	TextColor         string
	EntireTextOnly    bool
	Visible           bool
	TicksVisible      bool
	MinimumWidth      int
}

func DefaultPriceScaleOptions() PriceScaleOptions {
	return PriceScaleOptions{
		AutoScale:         true,
		Mode:              PriceScaleNormal,
		AlignLabels:       true,
		ScaleMarginTop:    0.2,
		ScaleMarginBottom: 0.2,
		Visible:           true,
	}
}

// CandleStyleOptions colors the candle bodies, borders and wicks. Empty
// border or wick colors inherit from the body colors.
type CandleStyleOptions struct {
	UpColor         string
	DownColor       string
	WickVisible     bool
	BorderVisible   bool
	BorderUpColor   string
	BorderDownColor string
	WickUpColor     string
	WickDownColor   string
}

func DefaultCandleStyleOptions() CandleStyleOptions {
	return CandleStyleOptions{
		UpColor:       "rgba(39, 157, 130, 100)",
		DownColor:     "rgba(200, 97, 100, 100)",
		WickVisible:   true,
		BorderVisible: true,
	}
}

// VolumeConfigOptions places and colors the volume sub-series. Colors apply
// to bars set or updated afterwards.
type VolumeConfigOptions struct {
	ScaleMarginTop    float64
	ScaleMarginBottom float64
	UpColor           string
	DownColor         string
}

func DefaultVolumeConfigOptions() VolumeConfigOptions {
	return VolumeConfigOptions{
		ScaleMarginTop: 0.8,
		UpColor:        "rgba(83,141,131,0.8)",
		DownColor:      "rgba(200,127,130,0.8)",
	}
}

// LineOptions configures a line series.
type LineOptions struct {
	Name         string
	Color        string
	Style        LineStyle
	Width        int
	PriceLine    bool
	PriceLabel   bool
	Group        string
	LegendSymbol string
	PriceScaleID string
}

func DefaultLineOptions(name string) LineOptions {
	return LineOptions{
		Name:       name,
		Color:      "rgba(214, 237, 255, 0.6)",
		Style:      LineSolid,
		Width:      2,
		PriceLine:  true,
		PriceLabel: true,
	}
}

// HistogramOptions configures a histogram series.
type HistogramOptions struct {
	Name              string
	Color             string
	PriceLine         bool
	PriceLabel        bool
	Group             string
	LegendSymbol      string
	ScaleMarginTop    float64
	ScaleMarginBottom float64
}

func DefaultHistogramOptions(name string) HistogramOptions {
	return HistogramOptions{
		Name:         name,
		Color:        "rgba(214, 237, 255, 0.6)",
		PriceLine:    true,
		PriceLabel:   true,
		LegendSymbol: "▥",
	}
}

// AreaOptions configures an area series.
type AreaOptions struct {
	Name         string
	TopColor     string
	BottomColor  string
	Invert       bool
	LineColor    string
	Style        LineStyle
	Width        int
	PriceLine    bool
	PriceLabel   bool
	Group        string
	LegendSymbol string
	PriceScaleID string
}

func DefaultAreaOptions(name string) AreaOptions {
	return AreaOptions{
		Name:         name,
		TopColor:     "rgba(0, 100, 0, 0.5)",
		BottomColor:  "rgba(138, 3, 3, 0.5)",
		LineColor:    "rgba(0,0,255,1)",
		Style:        LineSolid,
		Width:        2,
		PriceLine:    true,
		PriceLabel:   true,
		LegendSymbol: "◪",
	}
}

// BarOptions configures an OHLC bar series. LegendSymbols carries the up and
// down glyphs.
type BarOptions struct {
	Name          string
	UpColor       string
	DownColor     string
	OpenVisible   bool
	ThinBars      bool
	PriceLine     bool
	PriceLabel    bool
	Group         string
	LegendSymbols [2]string
	PriceScaleID  string
}

func DefaultBarOptions(name string) BarOptions {
	return BarOptions{
		Name:          name,
		UpColor:       "#26a69a",
		DownColor:     "#ef5350",
		OpenVisible:   true,
		ThinBars:      true,
		PriceLine:     true,
		PriceLabel:    true,
		LegendSymbols: [2]string{"┌", "└"},
	}
}

// TableOptions configures a floating table widget.
type TableOptions struct {
	Width                   float64
	Height                  float64
	Headings                []string
	Widths                  []float64
	Alignments              []string
	Position                string
	Draggable               bool
	BackgroundColor         string
	BorderColor             string
	BorderWidth             int
	HeadingTextColors       []string
	HeadingBackgroundColors []string
	ReturnClickedCells      bool
}

func DefaultTableOptions(headings ...string) TableOptions {
	return TableOptions{
		Width:           0.3,
		Height:          0.2,
		Headings:        headings,
		Position:        "left",
		BackgroundColor: "#121417",
		BorderColor:     "rgb(70, 70, 70)",
		BorderWidth:     1,
	}
}

// RootStyleOptions themes the window around the charts.
type RootStyleOptions struct {
	BackgroundColor       string `json:"backgroundColor"`
	HoverBackgroundColor  string `json:"hoverBackgroundColor"`
	ClickBackgroundColor  string `json:"clickBackgroundColor"`
	ActiveBackgroundColor string `json:"activeBackgroundColor"`
	MutedBackgroundColor  string `json:"mutedBackgroundColor"`
	BorderColor           string `json:"borderColor"`
	Color                 string `json:"color"`
	ActiveColor           string `json:"activeColor"`
}

func DefaultRootStyleOptions() RootStyleOptions {
	return RootStyleOptions{
		BackgroundColor:       "#0c0d0f",
		HoverBackgroundColor:  "#3c434c",
		ClickBackgroundColor:  "#50565E",
		ActiveBackgroundColor: "rgba(0, 122, 255, 0.7)",
		MutedBackgroundColor:  "rgba(0, 122, 255, 0.3)",
		BorderColor:           "#3C434C",
		Color:                 "#d8d9db",
		ActiveColor:           "#ececed",
	}
}

// TooltipOptions configures a synchronized crosshair tooltip.
type TooltipOptions struct {
	BackgroundColor string
	TextColor       string
	ShowOHLC        bool
	TriggerKey      string
	TriggerClick    bool
	ToggleMode      bool
}

func DefaultTooltipOptions() TooltipOptions {
	return TooltipOptions{ShowOHLC: true}
}
