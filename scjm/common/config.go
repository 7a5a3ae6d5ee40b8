package common

// Config contains all the configuration data for the app
type Config struct {
	AppName       string `yaml:"AppName"`
	Version       string `yaml:"Version"`
	DebugOutput   bool   `yaml:"DebugOutput"`
	VerboseOutput bool   `yaml:"VerboseOutput"`

	ProfilesDir string `yaml:"ProfilesDir"`
	OptionsFile string `yaml:"OptionsFile"`
	// ActionmapsFile is the game's own actionmaps.xml, set when the
	// server runs on the machine the game is installed on. Empty
	// disables write-back.
	ActionmapsFile string `yaml:"ActionmapsFile"`
	Catalog        OptionCatalog

	Preview PreviewData `yaml:"Preview"`
}

// PreviewData contains necessary data to render curve previews
type PreviewData struct {
	Image      Dimensions2d `yaml:"Image"`
	Inset      Point2d      `yaml:"Inset"`
	GridSteps  int          `yaml:"GridSteps"`
	JpgQuality int          `yaml:"JpgQuality"`

	FontsDir string  `yaml:"FontsDir"`
	Font     string  `yaml:"Font"`
	FontSize float64 `yaml:"FontSize"`

	BackgroundColour string `yaml:"BackgroundColour"`
	GridColour       string `yaml:"GridColour"`
	AxisColour       string `yaml:"AxisColour"`
	CurveColour      string `yaml:"CurveColour"`
	PointColour      string `yaml:"PointColour"`
	TextColour       string `yaml:"TextColour"`
}

// Point2d contains x and y
type Point2d struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Dimensions2d contains width and height
type Dimensions2d struct {
	W int `yaml:"w"` // Width
	H int `yaml:"h"` // Height
}
