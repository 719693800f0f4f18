package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/shouni/zunda-photo-kit/pkg/compose"
	"github.com/shouni/zunda-photo-kit/pkg/config"
	"github.com/shouni/zunda-photo-kit/pkg/domain"
	"github.com/shouni/zunda-photo-kit/pkg/generator"
	"github.com/shouni/zunda-photo-kit/pkg/imgutil"
)

const rateBurst = 2

// MascotSource はマスコット素材の取得窓口です。assets.Cache が実装します。
type MascotSource interface {
	Get(ctx context.Context) (domain.RawImage, error)
}

// Pipeline は1リクエストぶんのなじませ処理をオーケストレートする司令塔です。
// 正規化 → 下書き合成 → 時間制限付きの生成試行（最大2回） → フォールバック選択、
// の順に進み、必ず1枚の画像を持つ BlendOutcome を返します。
type Pipeline struct {
	mascots  MascotSource
	provider generator.BlendProvider
	planner  *compose.Planner
	limiter  *rate.Limiter
	cfg      *config.Config
}

// New は各コンポーネントを注入して Pipeline を初期化します。
// planner / limiter / cfg は nil なら既定のものを使います。
func New(mascots MascotSource, provider generator.BlendProvider, planner *compose.Planner, limiter *rate.Limiter, cfg *config.Config) (*Pipeline, error) {
	if mascots == nil {
		return nil, fmt.Errorf("mascots (MascotSource) is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider (BlendProvider) is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if planner == nil {
		planner = compose.NewPlanner(nil)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(cfg.Blend.RateInterval), rateBurst)
	}

	return &Pipeline{
		mascots:  mascots,
		provider: provider,
		planner:  planner,
		limiter:  limiter,
		cfg:      cfg,
	}, nil
}

// Execute は写真1枚を受け取り、マスコット入りの最終画像をちょうど1枚返します。
// プロバイダ側の失敗はここで吸収され、デコード・素材・合成の失敗だけが
// エラーとして外へ出ます。
func (p *Pipeline) Execute(ctx context.Context, photo []byte) (*domain.BlendOutcome, error) {
	aiSize := p.cfg.Image.AISize
	outSize := p.cfg.Image.OutputSize

	// 正規化: プロバイダの遅延とコストを抑える縮小版と、最終出力サイズ版の両方を作る
	aiBase, err := imgutil.Normalize(photo, aiSize)
	if err != nil {
		return nil, err
	}
	outBase, err := imgutil.Normalize(photo, outSize)
	if err != nil {
		return nil, err
	}

	// マスコット取得はどの生成試行よりも前。失敗したらこのリクエストは救えない
	mascot, err := p.mascots.Get(ctx)
	if err != nil {
		return nil, err
	}

	// 下書き: AIサイズのキャンバスで合成（安価で必ず成功する）
	plan := p.planner.Plan(aiSize, aiSize)
	draft, err := compose.CompositeDraft(aiBase, mascot, plan)
	if err != nil {
		return nil, err
	}

	req, err := p.buildRequest(aiBase, mascot, draft)
	if err != nil {
		return nil, err
	}

	if blended := p.tryBlend(ctx, req); blended != nil {
		return &domain.BlendOutcome{
			Image:      blended,
			MimeType:   "image/png",
			Provenance: domain.ProvenanceGenerative,
		}, nil
	}

	// フォールバック: 最終出力サイズで配置からやり直し、最高品質のローカル合成を返す
	fallbackPlan := p.planner.Plan(outSize, outSize)
	fallback, err := compose.CompositeDraft(outBase, mascot, fallbackPlan)
	if err != nil {
		return nil, err
	}

	return &domain.BlendOutcome{
		Image:      fallback.Image,
		MimeType:   "image/png",
		Provenance: domain.ProvenanceFallback,
	}, nil
}

// buildRequest は構成されたモードに応じたリクエスト形状を組み立てます。
func (p *Pipeline) buildRequest(aiBase []byte, mascot domain.RawImage, draft *domain.DraftComposite) (domain.BlendRequest, error) {
	aiSize := p.cfg.Image.AISize

	if p.cfg.Blend.Mode == "region_edit" {
		mask, err := compose.MakeMask(aiSize, aiSize, draft.Rect, p.cfg.Image.MaskPadPx)
		if err != nil {
			return domain.BlendRequest{}, err
		}
		return domain.BlendRequest{
			Mode:       domain.ModeRegionEdit,
			Draft:      draft.Image,
			Mask:       mask,
			TargetSize: aiSize,
		}, nil
	}

	// 全体生成モードでは転送量を抑えるためベース写真をJPEG圧縮して送る
	basePhoto := aiBase
	if compressed, err := imgutil.CompressToJPEG(aiBase, p.cfg.Image.JPEGQuality); err == nil {
		basePhoto = compressed
	}

	return domain.BlendRequest{
		Mode:       domain.ModeWholeImage,
		BasePhoto:  basePhoto,
		Mascot:     mascot.Data,
		TargetSize: aiSize,
	}, nil
}

// tryBlend は生成なじませを最大2回、逐次かつ時間制限付きで試します。
// 使える画像が得られれば最終出力サイズへ正規化して返し、得られなければ nil を返します。
// プロバイダ由来の失敗はここで止まり、呼び出し元へは伝播しません。
func (p *Pipeline) tryBlend(ctx context.Context, req domain.BlendRequest) []byte {
	var final []byte
	attempt := 0

	operation := func() error {
		attempt++
		timeout := p.cfg.Blend.FirstAttemptTimeout
		if attempt > 1 {
			timeout = p.cfg.Blend.SecondAttemptTimeout
		}

		res, err := p.blendOnce(ctx, req, timeout)
		if err != nil {
			slog.WarnContext(ctx, "生成なじませ試行に失敗しました", "attempt", attempt, "error", err)
			return err
		}
		if res == nil || len(res.Data) == 0 {
			slog.WarnContext(ctx, "プロバイダが空の結果を返しました", "attempt", attempt)
			return fmt.Errorf("%w: プロバイダ応答に画像データがありません", domain.ErrNoImage)
		}

		// プロバイダが画像と称して返したものが壊れているケースも試行失敗として扱う
		normalized, err := imgutil.Normalize(res.Data, p.cfg.Image.OutputSize)
		if err != nil {
			slog.WarnContext(ctx, "プロバイダ画像が不正でした", "attempt", attempt, "error", err)
			return err
		}

		final = normalized
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.Blend.RetryBackoff), 1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		slog.InfoContext(ctx, "生成なじませを断念し、ローカル合成へフォールバックします", "attempts", attempt)
		return nil
	}

	return final
}

// blendOnce はプロバイダ呼び出しをタイマーと競争させます。
// タイマーが勝った場合、進行中の呼び出しは起動済みのまま放置されますが、
// 1バッファのチャネルに落ちる遅着結果は誰にも読まれず破棄されます。
func (p *Pipeline) blendOnce(ctx context.Context, req domain.BlendRequest, timeout time.Duration) (*domain.ImageResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レートリミッタ待機が中断されました: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type blendReply struct {
		res *domain.ImageResult
		err error
	}
	replyCh := make(chan blendReply, 1)

	go func() {
		res, err := p.provider.Blend(attemptCtx, req)
		replyCh <- blendReply{res: res, err: err}
	}()

	select {
	case reply := <-replyCh:
		return reply.res, reply.err
	case <-attemptCtx.Done():
		return nil, fmt.Errorf("プロバイダ呼び出しがタイムアウトしました: %w", attemptCtx.Err())
	}
}
