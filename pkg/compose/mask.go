package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
	"github.com/shouni/zunda-photo-kit/pkg/imgutil"
)

// MakeMask は領域編集型プロバイダ向けのインペイントマスクを生成します。
// キャンバス全面が「編集禁止」（不透明）で、配置矩形を padPx ぶん広げた
// 「編集可能」（透明）な穴をひとつ開けます。穴はキャンバス内にクランプされます。
func MakeMask(canvasWidth, canvasHeight int, rect domain.PlacementRect, padPx int) ([]byte, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("%w: キャンバスサイズが不正です (%dx%d)", domain.ErrCompositing, canvasWidth, canvasHeight)
	}
	if padPx < 0 {
		padPx = 0
	}

	mask := image.NewNRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	draw.Draw(mask, mask.Bounds(), image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)

	hole := image.Rect(
		rect.Left-padPx,
		rect.Top-padPx,
		rect.Left+rect.Width+padPx,
		rect.Top+rect.Height+padPx,
	).Intersect(mask.Bounds())

	draw.Draw(mask, hole, image.Transparent, image.Point{}, draw.Src)

	return imgutil.EncodePNG(mask)
}
