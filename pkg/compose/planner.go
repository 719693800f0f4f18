package compose

import (
	"math"
	"math/rand"
	"time"
)

// 配置ポリシーの定数。キャンバス端から十分離れつつ、
// マスコットが判別できる大きさに収まる帯域に制約します。
const (
	marginFrac     = 0.04 // 角からの内側オフセット（キャンバス幅比）
	minScaleFrac   = 0.18 // マスコット描画幅の下限（キャンバス幅比）
	maxScaleFrac   = 0.32 // マスコット描画幅の上限（キャンバス幅比）
	maxRotationDeg = 6.0  // 回転角の上限（±対称）
)

// Corner はマスコットを寄せるキャンバスの角です。
type Corner int

const (
	CornerTopLeft Corner = iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

// Placement は「どこに・どの大きさで・どれだけ傾けて」置くかの計画です。
// 実寸のバウンディングボックスは回転後に確定するため、ここでは比率と角だけを持ちます。
type Placement struct {
	Corner      Corner
	MarginPx    int
	Scale       float64 // マスコット描画幅のキャンバス幅比
	RotationDeg float64
}

// Planner は制約付きランダムで配置を選びます。
// 乱数源を注入できるため、シード固定でテスト再現が可能です。
type Planner struct {
	rng *rand.Rand
}

// NewPlanner は乱数源を注入して Planner を初期化します。
// rng が nil の場合は時刻シードの乱数源を使います。
func NewPlanner(rng *rand.Rand) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{rng: rng}
}

// Plan は指定キャンバスに対する配置計画を返します。
// 同じ入力写真が続いても見た目が毎回同一にならないよう、
// 4つの角・大きさ・回転角を帯域内のランダムで選びます。
func (p *Planner) Plan(canvasWidth, canvasHeight int) Placement {
	return Placement{
		Corner:      Corner(p.rng.Intn(4)),
		MarginPx:    int(math.Round(marginFrac * float64(canvasWidth))),
		Scale:       minScaleFrac + p.rng.Float64()*(maxScaleFrac-minScaleFrac),
		RotationDeg: (p.rng.Float64()*2 - 1) * maxRotationDeg,
	}
}
