package imgutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

// Normalize は任意の入力画像を size×size の正方形PNGに正規化します。
// EXIFの向き情報を補正したうえで、短辺に合わせた中央の正方形を切り出し、
// Lanczos でリサイズします。同じ入力バイト列に対して決定的です。
func Normalize(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("出力サイズが不正です (%d): %w", size, domain.ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}

	// CropCenter は floor((width-side)/2), floor((height-side)/2) を左上とする切り出しを行う
	cropped := imaging.CropCenter(img, side, side)
	resized := imaging.Resize(cropped, size, size, imaging.Lanczos)

	return EncodePNG(resized)
}

// EncodePNG は image.Image をPNGバイト列にエンコードします。
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("PNGエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
