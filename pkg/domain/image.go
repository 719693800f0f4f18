package domain

// RawImage は転送層から受け取ったままの画像データです。
// エンコーディングはバイト列の中身以外に何も仮定しません。
type RawImage struct {
	Data     []byte
	MimeType string
}

// PlacementRect はキャンバス上でマスコットが占める領域です。
// 回転後のバウンディングボックスをピクセル単位で保持します。
type PlacementRect struct {
	Left        int
	Top         int
	Width       int
	Height      int
	RotationDeg float64
}

// DraftComposite はローカル合成済みの下書き画像と、その配置情報です。
// Rect は別解像度でマスクを作り直すために下流へ引き回します。
type DraftComposite struct {
	Image []byte // PNG エンコード済み
	Rect  PlacementRect
}

// BlendMode は生成プロバイダへのリクエスト形状を表します。
type BlendMode int

const (
	// ModeWholeImage は元写真とマスコットの2枚を渡し、全体を生成し直すモードです。
	ModeWholeImage BlendMode = iota
	// ModeRegionEdit は下書き合成とインペイントマスクを渡し、マスク領域のみ編集するモードです。
	ModeRegionEdit
)

// BlendRequest は生成プロバイダへの単一のなじませ要求です。
// Mode に応じて参照するフィールドが変わります（タグ付きバリアント）。
type BlendRequest struct {
	Mode BlendMode

	// ModeWholeImage 用
	BasePhoto []byte
	Mascot    []byte

	// ModeRegionEdit 用
	Draft []byte
	Mask  []byte

	// 出力の一辺（正方形）。プロンプトのサイズ指定に使います。
	TargetSize int
}

// ImageResult はプロバイダから取り出した画像データとそのメタデータです。
type ImageResult struct {
	Data     []byte
	MimeType string
}

// Provenance は最終出力が生成結果かローカルフォールバックかを示します。
type Provenance string

const (
	ProvenanceGenerative Provenance = "generative"
	ProvenanceFallback   Provenance = "fallback"
)

// Caption は配信時のキャプション文字列を返します。挙動には影響しない観測用です。
func (p Provenance) Caption() string {
	if p == ProvenanceGenerative {
		return "AIがなじませた一枚なのだ"
	}
	return "手元で合成した一枚なのだ"
}

// BlendOutcome はリクエストごとにちょうど1枚返る最終結果です。
// Image は呼び出し元へ返る時点で必ず非 nil です。
type BlendOutcome struct {
	Image      []byte
	MimeType   string
	Provenance Provenance
}
