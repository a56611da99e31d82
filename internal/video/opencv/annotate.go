package opencv

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

var (
	boxColor    = color.RGBA{G: 255, A: 255}
	centerColor = color.RGBA{R: 255, A: 255}
	textColor   = color.RGBA{R: 255, G: 255, A: 255}
)

type Annotator struct {
	quality int
}

func NewAnnotator(jpegQuality int) *Annotator {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 90
	}

	return &Annotator{quality: jpegQuality}
}

// Annotate draws boxes, centers and names of detections onto a copy of frame
// and returns it as JPEG.
func (a *Annotator) Annotate(frame models.Frame, detections []models.DetectionRecord, header string) ([]byte, error) {
	const op = "video.opencv.Annotate"

	img, err := matFromFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer img.Close()

	for _, d := range detections {
		gocv.Rectangle(&img, image.Rect(d.Rect.MinX, d.Rect.MinY, d.Rect.MaxX, d.Rect.MaxY), boxColor, 2)
		gocv.Circle(&img, image.Pt(d.Center.X, d.Center.Y), 5, centerColor, -1)

		label := fmt.Sprintf("%s (%d,%d)", d.Name, d.Center.X, d.Center.Y)
		gocv.PutText(&img, label, image.Pt(d.Rect.MinX, max(d.Rect.MinY-10, 15)), gocv.FontHersheySimplex, 0.6, boxColor, 2)
	}

	gocv.PutText(&img, header, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, textColor, 2)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, a.quality})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())

	return out, nil
}
