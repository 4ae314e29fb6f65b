//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Normalize декодирует изображение через OpenCV и кодирует обратно в JPEG.
// JPEG возвращается без изменений.
func (n *Normalizer) Normalize(data []byte) ([]byte, error) {
	if isJPEG(data) {
		return data, nil
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, n.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// буфер принадлежит OpenCV, копируем до Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
