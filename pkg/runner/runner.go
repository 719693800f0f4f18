package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

// PhotoFetcher は写真参照をバイト列に解決します。
// httpkit.ClientInterface がそのまま実装します。
type PhotoFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Deliverer は最終画像を宛先へ届けます。メッセージング転送層が実装します。
type Deliverer interface {
	Deliver(ctx context.Context, destination string, image []byte, caption string) error
}

// BlendPipeline はなじませ処理の窓口です。pipeline.Pipeline が実装します。
type BlendPipeline interface {
	Execute(ctx context.Context, photo []byte) (*domain.BlendOutcome, error)
}

// PhotoRunner は写真1枚のリクエストを受け取り → なじませ → 配信、までを担当します。
// リクエストごとに独立しており、共有状態を持ちません。
type PhotoRunner struct {
	fetcher   PhotoFetcher
	pipeline  BlendPipeline
	deliverer Deliverer
}

// NewPhotoRunner は依存関係を注入して PhotoRunner を初期化します。
func NewPhotoRunner(fetcher PhotoFetcher, pipeline BlendPipeline, deliverer Deliverer) (*PhotoRunner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher (PhotoFetcher) is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline (BlendPipeline) is required")
	}
	if deliverer == nil {
		return nil, fmt.Errorf("deliverer (Deliverer) is required")
	}

	return &PhotoRunner{
		fetcher:   fetcher,
		pipeline:  pipeline,
		deliverer: deliverer,
	}, nil
}

// Run は写真参照を解決し、なじませた画像をちょうど1枚だけ宛先へ届けます。
// キャプションは出所（生成 / フォールバック）を示す観測用の文字列です。
func (r *PhotoRunner) Run(ctx context.Context, photoRef, destination string) error {
	slog.InfoContext(ctx, "写真リクエストを処理します", "photo_ref", photoRef)

	photo, err := r.fetcher.FetchBytes(ctx, photoRef)
	if err != nil {
		return fmt.Errorf("写真の取得に失敗しました: %w", err)
	}

	outcome, err := r.pipeline.Execute(ctx, photo)
	if err != nil {
		slog.ErrorContext(ctx, "なじませ処理に失敗しました", "photo_ref", photoRef, "error", err)
		return fmt.Errorf("なじませ処理に失敗しました: %w", err)
	}

	if err := r.deliverer.Deliver(ctx, destination, outcome.Image, outcome.Provenance.Caption()); err != nil {
		return fmt.Errorf("配信に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "配信が完了しました",
		"destination", destination,
		"provenance", outcome.Provenance,
		"bytes", len(outcome.Image),
	)
	return nil
}
