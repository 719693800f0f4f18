package generator

import (
	"context"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

// BlendProvider は生成バックエンドの統合窓口です。
// 全体生成（2枚入力）と領域編集（下書き+マスク）のどちらのリクエスト形状も
// 単一の操作に正規化され、呼び出し側は構成済みバックエンドの種類を意識しません。
// 使える画像が得られない場合は、分類済みのエラー
// (domain.ErrNoImage / domain.ErrQuotaExceeded / その他の通信エラー) を返します。
type BlendProvider interface {
	Blend(ctx context.Context, req domain.BlendRequest) (*domain.ImageResult, error)
}
