package compose

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
	"github.com/shouni/zunda-photo-kit/pkg/imgutil"
)

// 単色ベースキャンバスのPNGを作るヘルパー
func makeBasePNG(t *testing.T, size int, c color.NRGBA) []byte {
	t.Helper()
	img := imaging.New(size, size, c)
	data, err := imgutil.EncodePNG(img)
	require.NoError(t, err)
	return data
}

// 周囲に透過を持つマスコット風画像を作るヘルパー
func makeMascot(t *testing.T, w, h int) domain.RawImage {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := w / 4; x < w*3/4; x++ {
		for y := h / 4; y < h*3/4; y++ {
			img.Set(x, y, color.NRGBA{R: 0x8f, G: 0xd4, B: 0x60, A: 255}) // ずんだ色
		}
	}
	data, err := imgutil.EncodePNG(img)
	require.NoError(t, err)
	return domain.RawImage{Data: data, MimeType: "image/png"}
}

func TestCompositeDraft(t *testing.T) {
	base := makeBasePNG(t, 512, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	mascot := makeMascot(t, 120, 160)

	t.Run("全ての角で配置矩形がキャンバス内に収まるのだ", func(t *testing.T) {
		planner := NewPlanner(rand.New(rand.NewSource(3)))

		for i := 0; i < 50; i++ {
			plan := planner.Plan(512, 512)
			draft, err := CompositeDraft(base, mascot, plan)
			require.NoError(t, err)

			rect := draft.Rect
			assert.GreaterOrEqual(t, rect.Left, 0)
			assert.GreaterOrEqual(t, rect.Top, 0)
			assert.LessOrEqual(t, rect.Left+rect.Width, 512)
			assert.LessOrEqual(t, rect.Top+rect.Height, 512)
			assert.Equal(t, plan.RotationDeg, rect.RotationDeg)
		}
	})

	t.Run("極端に縦長のマスコットでも矩形がキャンバス内に収まるのだ", func(t *testing.T) {
		tall := makeMascot(t, 40, 400)
		planner := NewPlanner(rand.New(rand.NewSource(7)))

		for i := 0; i < 30; i++ {
			plan := planner.Plan(512, 512)
			draft, err := CompositeDraft(base, tall, plan)
			require.NoError(t, err)

			rect := draft.Rect
			assert.GreaterOrEqual(t, rect.Left, 0)
			assert.GreaterOrEqual(t, rect.Top, 0)
			assert.LessOrEqual(t, rect.Left+rect.Width, 512, "回転後の箱が横にはみ出さないこと")
			assert.LessOrEqual(t, rect.Top+rect.Height, 512, "回転後の箱が縦にはみ出さないこと")
		}
	})

	t.Run("出力はベースと同じ寸法のPNGなのだ", func(t *testing.T) {
		plan := NewPlanner(rand.New(rand.NewSource(9))).Plan(512, 512)
		draft, err := CompositeDraft(base, mascot, plan)
		require.NoError(t, err)

		img, err := imaging.Decode(bytes.NewReader(draft.Image))
		require.NoError(t, err)
		assert.Equal(t, 512, img.Bounds().Dx())
		assert.Equal(t, 512, img.Bounds().Dy())
	})

	t.Run("同じ計画からはバイト単位で同一の下書きが得られるのだ", func(t *testing.T) {
		plan := NewPlanner(rand.New(rand.NewSource(42))).Plan(512, 512)

		first, err := CompositeDraft(base, mascot, plan)
		require.NoError(t, err)
		second, err := CompositeDraft(base, mascot, plan)
		require.NoError(t, err)

		assert.Equal(t, first.Image, second.Image)
		assert.Equal(t, first.Rect, second.Rect)
	})

	t.Run("マスコットの画素が配置矩形内に描画されているのだ", func(t *testing.T) {
		plan := Placement{Corner: CornerTopLeft, MarginPx: 20, Scale: 0.25, RotationDeg: 0}
		draft, err := CompositeDraft(base, mascot, plan)
		require.NoError(t, err)

		img, err := imaging.Decode(bytes.NewReader(draft.Image))
		require.NoError(t, err)
		nrgba := imaging.Clone(img)

		rect := draft.Rect
		cx := rect.Left + rect.Width/2
		cy := rect.Top + rect.Height/2
		c := nrgba.NRGBAAt(cx, cy)
		assert.Equal(t, uint8(0x8f), c.R, "矩形中央はマスコット色のはず")
	})

	t.Run("影がマスコットの右下に落ちているのだ", func(t *testing.T) {
		plan := Placement{Corner: CornerTopLeft, MarginPx: 40, Scale: 0.25, RotationDeg: 0}
		draft, err := CompositeDraft(base, mascot, plan)
		require.NoError(t, err)

		img, err := imaging.Decode(bytes.NewReader(draft.Image))
		require.NoError(t, err)
		nrgba := imaging.Clone(img)

		// 不透明部は矩形の内側 1/4〜3/4 に収まるため、右下オフセット先の画素は影のみ
		rect := draft.Rect
		sx := rect.Left + rect.Width*3/4 + shadowOffsetX + 1
		sy := rect.Top + rect.Height*3/4 + shadowOffsetY + 1
		c := nrgba.NRGBAAt(sx, sy)
		assert.Less(t, int(c.R), 200, "影の画素はベースより暗いはず")
	})

	t.Run("デコード不能なベース画像は ErrCompositing になるのだ", func(t *testing.T) {
		plan := NewPlanner(rand.New(rand.NewSource(1))).Plan(512, 512)
		_, err := CompositeDraft([]byte("broken"), mascot, plan)
		assert.ErrorIs(t, err, domain.ErrCompositing)
	})

	t.Run("デコード不能なマスコットは ErrCompositing になるのだ", func(t *testing.T) {
		plan := NewPlanner(rand.New(rand.NewSource(1))).Plan(512, 512)
		_, err := CompositeDraft(base, domain.RawImage{Data: []byte("broken")}, plan)
		assert.ErrorIs(t, err, domain.ErrCompositing)
	})
}
