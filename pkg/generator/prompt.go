package generator

import "github.com/shouni/zunda-photo-kit/pkg/domain"

// なじませ指示文。ユーザーから編集できない固定文で、モードごとに1種類だけ持ちます。
// 顔の被覆上限は全体生成モードのみの制約で、プログラム側での検証は行いません
// （プロバイダへのベストエフォートな指示に留めます）。
const (
	wholeImageInstruction = "Insert the mascot character from the second image " +
		"into the photo from the first image so it looks naturally part of the scene. " +
		"Keep the mascot's shape and colors exactly as provided. " +
		"Do not cover more than a third of any person's face. " +
		"Match the scene's lighting and add a consistent soft shadow under the mascot. " +
		"Do not add any text, logos, or watermarks. " +
		"Return a single square image."

	regionEditInstruction = "The first image is a photo with a mascot character " +
		"roughly composited onto it. The second image is a mask: the transparent " +
		"region is the only area you may repaint. " +
		"Blend the mascot into the scene within that region only. " +
		"Keep the mascot's shape and colors exactly as provided. " +
		"Match the scene's lighting and refine the mascot's contact shadow. " +
		"Do not add any text, logos, or watermarks. " +
		"Return a single square image."
)

// instructionFor はリクエスト形状に対応する固定指示文を返します。
func instructionFor(mode domain.BlendMode) string {
	if mode == domain.ModeRegionEdit {
		return regionEditInstruction
	}
	return wholeImageInstruction
}
