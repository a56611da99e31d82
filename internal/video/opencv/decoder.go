package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

// Decoder finds QR codes with the OpenCV QR detector. OpenCV reports only QR
// symbols, so every detection carries models.FormatQRCode.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(frame models.Frame) ([]models.RawDetection, error) {
	const op = "video.opencv.Decode"

	if frame.Empty() {
		return nil, nil
	}

	img, err := matFromFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer img.Close()

	detector := gocv.NewQRCodeDetector()
	defer detector.Close()

	points := gocv.NewMat()
	defer points.Close()

	if !detector.DetectMulti(img, &points) || points.Empty() {
		return nil, nil
	}

	res := make([]models.RawDetection, 0, points.Rows())

	for row := 0; row < points.Rows(); row++ {
		det := models.RawDetection{
			Format:  models.FormatQRCode,
			Payload: decodeAt(&detector, img, points, row),
		}

		for col := 0; col < 4 && col < points.Cols(); col++ {
			v := points.GetVecfAt(row, col)
			det.Corners[col] = models.PointF{X: float64(v[0]), Y: float64(v[1])}
		}

		res = append(res, det)
	}

	return res, nil
}

// decodeAt reads the payload of the code whose corners are in row of points.
// An unreadable code yields an empty payload.
func decodeAt(detector *gocv.QRCodeDetector, img, points gocv.Mat, row int) string {
	corners := points.RowRange(row, row+1)
	defer corners.Close()

	straight := gocv.NewMat()
	defer straight.Close()

	return detector.Decode(img, corners, &straight)
}
