package models

import "time"

// Frame is a single decoded image in row-major BGR (or gray when Channels is 1).
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	Channels   int
	CapturedAt time.Time
}

func (f Frame) Empty() bool {
	return len(f.Data) == 0 || f.Width == 0 || f.Height == 0
}

type SymbolFormat string

const (
	FormatQRCode     SymbolFormat = "QR_CODE"
	FormatDataMatrix SymbolFormat = "DATA_MATRIX"
	FormatAztec      SymbolFormat = "AZTEC"
)

type PointF struct {
	X float64
	Y float64
}

// RawDetection is one symbol reported by a decoder, corners in decode order.
type RawDetection struct {
	Payload string
	Format  SymbolFormat
	Corners [4]PointF
}
