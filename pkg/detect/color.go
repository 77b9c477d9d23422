package detect

import (
	"fmt"
	"image"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/geom"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"gocv.io/x/gocv"
)

//DefaultMinArea is the smallest contour area (px²) kept as a player, smaller regions are noise
const DefaultMinArea = 200

//HSV is a color in OpenCV's 8 bit HSV space (H in [0,180], S and V in [0,255])
type HSV struct {
	H float64 `mapstructure:"h" json:"h"`
	S float64 `mapstructure:"s" json:"s"`
	V float64 `mapstructure:"v" json:"v"`
}

func (c HSV) scalar() gocv.Scalar {
	return gocv.NewScalar(c.H, c.S, c.V, 0)
}

//TeamRange is the inclusive HSV box matching one team's uniform
type TeamRange struct {
	Team  Team
	Lower HSV
	Upper HSV
}

//Validate checks bounds are ordered and inside OpenCV's HSV ranges
func (r TeamRange) Validate() error {
	if r.Team == NoTeam {
		return fmt.Errorf("color range: missing team")
	}
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return fmt.Errorf("color range %s: lower bound above upper bound", r.Team)
	}
	if r.Upper.H > 180 || r.Upper.S > 255 || r.Upper.V > 255 || r.Lower.H < 0 || r.Lower.S < 0 || r.Lower.V < 0 {
		return fmt.Errorf("color range %s: out of HSV range", r.Team)
	}
	return nil
}

//DefaultTeamRanges are blue shirts for team A and red shirts for team B
func DefaultTeamRanges() []TeamRange {
	return []TeamRange{
		{Team: TeamA, Lower: HSV{H: 100, S: 150, V: 50}, Upper: HSV{H: 130, S: 255, V: 255}},
		{Team: TeamB, Lower: HSV{H: 0, S: 150, V: 50}, Upper: HSV{H: 10, S: 255, V: 255}},
	}
}

//ColorSegmenter finds players by masking each team's uniform color and taking the connected regions left.
//Team assignment is implicit in which mask a region came from.
type ColorSegmenter struct {
	ranges     []TeamRange
	minArea    float64
	kernelSize int
}

//ColorOption configures a ColorSegmenter
type ColorOption func(*ColorSegmenter)

//WithMinArea sets the minimum contour area, regions strictly below it are dropped
func WithMinArea(area float64) ColorOption {
	return func(c *ColorSegmenter) {
		if area >= 0 {
			c.minArea = area
		}
	}
}

//WithTeamRanges replaces the default team color ranges
func WithTeamRanges(ranges ...TeamRange) ColorOption {
	return func(c *ColorSegmenter) {
		if len(ranges) > 0 {
			c.ranges = ranges
		}
	}
}

//WithOpenKernel sets the size of the square kernel used to open masks before contour extraction, 0 disables it
func WithOpenKernel(size int) ColorOption {
	return func(c *ColorSegmenter) {
		if size >= 0 {
			c.kernelSize = size
		}
	}
}

//NewColorSegmenter builds the color-segmentation strategy
func NewColorSegmenter(opts ...ColorOption) (*ColorSegmenter, error) {
	c := &ColorSegmenter{
		ranges:     DefaultTeamRanges(),
		minArea:    DefaultMinArea,
		kernelSize: 3,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, r := range c.ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

//Detect returns one observation per uniform-colored region of at least minArea pixels, positioned at its bounding box center
func (c *ColorSegmenter) Detect(frame video.Frame) ([]Observation, error) {
	if frame.Mat.Empty() {
		return nil, nil
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame.Mat, &hsv, gocv.ColorBGRToHSV)

	var kernel gocv.Mat
	if c.kernelSize > 0 {
		kernel = gocv.GetStructuringElement(gocv.MorphRect, image.Pt(c.kernelSize, c.kernelSize))
		defer kernel.Close()
	}

	res := make([]Observation, 0)
	for _, r := range c.ranges {
		res = append(res, c.detectTeam(hsv, r, kernel)...)
	}

	return res, nil
}

func (c *ColorSegmenter) detectTeam(hsv gocv.Mat, r TeamRange, kernel gocv.Mat) []Observation {
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.InRangeWithScalar(hsv, r.Lower.scalar(), r.Upper.scalar(), &mask)
	if c.kernelSize > 0 {
		gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	res := make([]Observation, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < c.minArea {
			continue
		}

		box := gocv.BoundingRect(contour)
		res = append(res, Observation{
			Team:     r.Team,
			Position: geom.Center(box),
			Box:      box,
		})
	}

	return res
}
