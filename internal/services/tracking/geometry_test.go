package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu03092004/CameraTrackingBE/internal/domain/models"
)

// square returns a QR detection with its top-left corner at (x, y).
func square(payload string, x, y, side float64) models.RawDetection {
	return models.RawDetection{
		Payload: payload,
		Format:  models.FormatQRCode,
		Corners: [4]models.PointF{
			{X: x, Y: y},
			{X: x + side, Y: y},
			{X: x + side, Y: y + side},
			{X: x, Y: y + side},
		},
	}
}

func TestAcceptKeepsDistantMarkers(t *testing.T) {
	raw := []models.RawDetection{
		square("A", 0, 0, 40),
		square("B", 100, 0, 40),
		square("C", 0, 100, 40),
		square("D", 300, 300, 40),
	}

	got := Accept(raw, 1, 100)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(got))
}

func TestAcceptDropsOverlappingReads(t *testing.T) {
	raw := []models.RawDetection{
		square("first", 100, 100, 40),
		square("second", 150, 160, 40),
		square("far", 400, 100, 40),
	}

	got := Accept(raw, 1, 100)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "far", got[1].Name)
}

func TestAcceptNeedsBothAxesClose(t *testing.T) {
	raw := []models.RawDetection{
		square("a", 0, 0, 20),
		square("b", 50, 150, 20),
	}

	got := Accept(raw, 1, 100)

	assert.Len(t, got, 2)
}

func TestAcceptGeometry(t *testing.T) {
	raw := []models.RawDetection{{
		Payload: "P",
		Format:  models.FormatQRCode,
		Corners: [4]models.PointF{
			{X: 10.4, Y: 20.6},
			{X: 41.2, Y: 20.2},
			{X: 41.0, Y: 53.0},
			{X: 10.0, Y: 52.8},
		},
	}}

	got := Accept(raw, 1, 100)
	require.Len(t, got, 1)

	// corners round to (10,21) (41,20) (41,53) (10,53)
	assert.Equal(t, models.Point{X: 26, Y: 37}, got[0].Center)
	assert.Equal(t, models.Rect{MinX: 10, MinY: 20, MaxX: 42, MaxY: 54}, got[0].Rect)
	assert.Equal(t, 32, got[0].ReferenceWidth)
	assert.Zero(t, got[0].Rect.Width()%2)
	assert.Zero(t, got[0].Rect.Height()%2)
}

func TestAcceptRoundsHalfToEven(t *testing.T) {
	raw := []models.RawDetection{{
		Payload: "T",
		Format:  models.FormatQRCode,
		Corners: [4]models.PointF{
			{X: 10, Y: 2.5},
			{X: 11, Y: 2},
			{X: 11, Y: 3},
			{X: 10, Y: 3},
		},
	}}

	got := Accept(raw, 1, 100)
	require.Len(t, got, 1)

	// 2.5 rounds to 2; x sums to 42, 42/4 = 10.5 rounds to 10; y sums to 10, 2.5 rounds to 2
	assert.Equal(t, models.Point{X: 10, Y: 2}, got[0].Center)
}

func TestAcceptEvenRectUnchanged(t *testing.T) {
	got := Accept([]models.RawDetection{square("E", 10, 10, 40)}, 1, 100)

	require.Len(t, got, 1)
	assert.Equal(t, models.Rect{MinX: 10, MinY: 10, MaxX: 50, MaxY: 50}, got[0].Rect)
	assert.Equal(t, 40, got[0].ReferenceWidth)
	assert.Equal(t, models.Point{X: 30, Y: 30}, got[0].Center)
}

func TestAcceptPlaceholderNames(t *testing.T) {
	raw := []models.RawDetection{
		square("", 0, 0, 40),
		square("named", 200, 0, 40),
		square("", 400, 0, 40),
	}

	got := Accept(raw, 7, 100)

	assert.Equal(t, []string{"QR_Camera_7_1", "named", "QR_Camera_7_3"}, names(got))
}

func TestAcceptIgnoresOtherSymbologies(t *testing.T) {
	other := square("dm", 0, 0, 40)
	other.Format = models.FormatDataMatrix

	got := Accept([]models.RawDetection{other, square("qr", 10, 10, 40)}, 1, 100)

	require.Len(t, got, 1)
	assert.Equal(t, "qr", got[0].Name)
}

func TestAcceptEmpty(t *testing.T) {
	got := Accept(nil, 1, 100)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func names(recs []models.DetectionRecord) []string {
	res := make([]string, 0, len(recs))
	for _, r := range recs {
		res = append(res, r.Name)
	}
	return res
}
