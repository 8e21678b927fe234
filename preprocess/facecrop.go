package preprocess

import (
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// FaceCropROI expands the face outline polygon outward by a margin
// proportional to its area and returns the axis aligned crop rectangle
// clamped to the image bounds.  The expanded region gives the emotion
// classifier context around the face rather than a tight landmark crop.
// A degenerate outline falls back to the full frame.
func FaceCropROI(outline []image.Point, width, height int, marginRatio float64) image.Rectangle {

	full := image.Rect(0, 0, width, height)

	if len(outline) < 3 || marginRatio <= 0 {
		return full
	}

	// offset distance follows the polygon unclip formula, area scaled by the
	// margin ratio over the perimeter
	area := contourArea(outline)
	perimeter := contourPerimeter(outline)

	if area <= 0 || perimeter <= 0 {
		return full
	}

	distance := area * marginRatio / perimeter

	// convert the outline points to a Clipper Path
	var path clipper.Path

	for _, pt := range outline {
		path = append(path, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}

	// create a ClipperOffset object and add the path
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	// execute the offset operation
	solution := co.Execute(distance)

	// take the bounds of the expanded polygon
	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := math.MinInt32, math.MinInt32

	for _, sol := range solution {
		for _, pt := range sol {
			minX = min(minX, int(pt.X))
			minY = min(minY, int(pt.Y))
			maxX = max(maxX, int(pt.X))
			maxY = max(maxY, int(pt.Y))
		}
	}

	if minX >= maxX || minY >= maxY {
		return full
	}

	roi := image.Rect(minX, minY, maxX, maxY).Intersect(full)

	if roi.Empty() {
		return full
	}

	return roi
}

// contourArea calculates the polygon area using the shoelace formula
func contourArea(pts []image.Point) float64 {

	area := 0.0
	n := len(pts)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += float64(pts[i].X)*float64(pts[j].Y) - float64(pts[j].X)*float64(pts[i].Y)
	}

	return math.Abs(area) / 2.0
}

// contourPerimeter calculates the total edge length of the polygon
func contourPerimeter(pts []image.Point) float64 {

	perimeter := 0.0
	n := len(pts)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dx := float64(pts[j].X - pts[i].X)
		dy := float64(pts[j].Y - pts[i].Y)
		perimeter += math.Hypot(dx, dy)
	}

	return perimeter
}
