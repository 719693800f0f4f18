package domain

import "errors"

// リクエスト全体を失敗させる致命系と、フォールバックに吸収される非致命系を区別します。
// 非致命系（ErrNoImage / ErrQuotaExceeded）はオーケストレーターの外へは伝播しません。
var (
	// ErrDecode は入力写真がデコードできない場合の致命エラーです。
	ErrDecode = errors.New("画像をデコードできませんでした")

	// ErrAssetUnavailable はマスコット素材を取得できない場合の致命エラーです。
	// この層より下にフォールバックは存在しません。
	ErrAssetUnavailable = errors.New("マスコット素材を取得できませんでした")

	// ErrCompositing はローカル合成の失敗です。フォールバック連鎖の底なので致命です。
	ErrCompositing = errors.New("ローカル合成に失敗しました")

	// ErrNoImage はプロバイダ応答が整形式だが画像を含まない場合です。
	ErrNoImage = errors.New("プロバイダ応答に画像データがありませんでした")

	// ErrQuotaExceeded はプロバイダの明示的なレート/クォータ超過シグナルです。
	ErrQuotaExceeded = errors.New("プロバイダのクォータを超過しました")
)
