package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
	"github.com/shouni/zunda-photo-kit/pkg/imgutil"
)

// 接地影の合成パラメータ。マスコットの右下に柔らかい影を落とします。
const (
	shadowOffsetX    = 6
	shadowOffsetY    = 6
	shadowBlurSigma  = 5.0
	shadowOpacity    = 0.45
	shadowAlphaLimit = 160 // 影が完全な黒塗りにならないようアルファ上限を絞る
)

// CompositeDraft は計画どおりにマスコットをベース画像へ合成した下書きを返します。
// 外部呼び出しを一切含まない、保証されたフォールバックレンダラです。
// 合成順はベース → 影 → マスコットで、いずれもアルファオーバー合成です。
func CompositeDraft(base []byte, mascot domain.RawImage, placement Placement) (*domain.DraftComposite, error) {
	baseImg, err := imaging.Decode(bytes.NewReader(base))
	if err != nil {
		return nil, fmt.Errorf("%w: ベース画像のデコード失敗: %v", domain.ErrCompositing, err)
	}
	mascotImg, err := imaging.Decode(bytes.NewReader(mascot.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: マスコットのデコード失敗: %v", domain.ErrCompositing, err)
	}

	canvasW := baseImg.Bounds().Dx()
	canvasH := baseImg.Bounds().Dy()

	// 幅基準のアスペクト維持リサイズ（高さ0指定で imaging が比率を保つ）
	targetW := int(math.Round(placement.Scale * float64(canvasW)))
	if targetW < 1 {
		targetW = 1
	}
	scaled := imaging.Resize(mascotImg, targetW, 0, imaging.Lanczos)

	// 透過背景で回転。回転後の画像サイズがそのままバウンディングボックスになる
	rotated := imaging.Rotate(scaled, placement.RotationDeg, color.NRGBA{})

	// 縦長マスコットでは幅基準のスケールでも回転後の箱がキャンバスの高さを
	// 超えうるため、箱が両辺に収まるまで幅を縮めて作り直す
	for (rotated.Bounds().Dx() > canvasW || rotated.Bounds().Dy() > canvasH) && targetW > 1 {
		shrink := math.Min(
			float64(canvasW)/float64(rotated.Bounds().Dx()),
			float64(canvasH)/float64(rotated.Bounds().Dy()),
		)
		next := int(math.Floor(float64(targetW) * shrink))
		if next >= targetW {
			next = targetW - 1
		}
		if next < 1 {
			next = 1
		}
		targetW = next
		scaled = imaging.Resize(mascotImg, targetW, 0, imaging.Lanczos)
		rotated = imaging.Rotate(scaled, placement.RotationDeg, color.NRGBA{})
	}
	if rotated.Bounds().Dx() > canvasW || rotated.Bounds().Dy() > canvasH {
		return nil, fmt.Errorf("%w: マスコットをキャンバス %dx%d に収められませんでした", domain.ErrCompositing, canvasW, canvasH)
	}

	rect := anchorRect(placement, rotated.Bounds().Dx(), rotated.Bounds().Dy(), canvasW, canvasH)

	shadow := imaging.Blur(silhouette(rotated), shadowBlurSigma)

	out := imaging.Overlay(baseImg, shadow, image.Pt(rect.Left+shadowOffsetX, rect.Top+shadowOffsetY), shadowOpacity)
	out = imaging.Overlay(out, rotated, image.Pt(rect.Left, rect.Top), 1.0)

	encoded, err := imgutil.EncodePNG(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompositing, err)
	}

	return &domain.DraftComposite{Image: encoded, Rect: rect}, nil
}

// anchorRect は角・マージン・回転後サイズから実際の配置矩形を確定します。
// 矩形は必ずキャンバス内に収まるようにクランプされます。
func anchorRect(placement Placement, boxW, boxH, canvasW, canvasH int) domain.PlacementRect {
	left := placement.MarginPx
	if placement.Corner == CornerTopRight || placement.Corner == CornerBottomRight {
		left = canvasW - placement.MarginPx - boxW
	}
	top := placement.MarginPx
	if placement.Corner == CornerBottomLeft || placement.Corner == CornerBottomRight {
		top = canvasH - placement.MarginPx - boxH
	}

	left = clamp(left, 0, canvasW-boxW)
	top = clamp(top, 0, canvasH-boxH)

	return domain.PlacementRect{
		Left:        left,
		Top:         top,
		Width:       boxW,
		Height:      boxH,
		RotationDeg: placement.RotationDeg,
	}
}

// silhouette は画像のアルファ形状を保ったまま黒一色に塗りつぶします。
func silhouette(src *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	for i := 0; i+3 < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		if a > shadowAlphaLimit {
			a = shadowAlphaLimit
		}
		out.Pix[i+3] = a
	}
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
