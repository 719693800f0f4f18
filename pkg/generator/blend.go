package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

// GeminiBlendClient は Gemini を使った BlendProvider の実装です。
// 固定の指示文と画像パーツを組み立てて送信し、応答から画像を取り出します。
type GeminiBlendClient struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiBlendClient は依存関係を注入して GeminiBlendClient を初期化します。
func NewGeminiBlendClient(aiClient gemini.GenerativeModel, model string) (*GeminiBlendClient, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &GeminiBlendClient{
		aiClient: aiClient,
		model:    model,
	}, nil
}

// Blend はリクエスト形状に応じたパーツ群を組み立てて生成を実行します。
// 画像が得られないすべてのケースは分類済みエラーとして返り、panic や
// 未分類の異常としては伝播しません。
func (c *GeminiBlendClient) Blend(ctx context.Context, req domain.BlendRequest) (*domain.ImageResult, error) {
	parts, err := buildParts(req)
	if err != nil {
		return nil, err
	}

	opts := gemini.GenerateOptions{
		AspectRatio: "1:1",
	}

	resp, err := c.aiClient.GenerateWithParts(ctx, c.model, parts, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	out, err := parseToResult(resp)
	if err != nil {
		slog.WarnContext(ctx, "プロバイダ応答から画像を取り出せませんでした", "model", c.model, "error", err)
		return nil, err
	}

	return out, nil
}

// buildParts はタグ付きリクエストを genai のパーツ列に変換します。
// 先頭が指示文、以降がモードに応じた画像2枚です。
func buildParts(req domain.BlendRequest) ([]*genai.Part, error) {
	var payloads [][]byte
	switch req.Mode {
	case domain.ModeWholeImage:
		payloads = [][]byte{req.BasePhoto, req.Mascot}
	case domain.ModeRegionEdit:
		payloads = [][]byte{req.Draft, req.Mask}
	default:
		return nil, fmt.Errorf("未知のリクエスト形状です: %d", req.Mode)
	}

	instruction := instructionFor(req.Mode)
	if req.TargetSize > 0 {
		instruction += fmt.Sprintf(" Output size: %dx%d.", req.TargetSize, req.TargetSize)
	}

	parts := []*genai.Part{{Text: instruction}}
	for i, data := range payloads {
		part := toPart(data)
		if part == nil {
			return nil, fmt.Errorf("画像パーツ %d を組み立てられませんでした", i)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// toPart はバイト列を genai.Part (InlineData) に変換します。
func toPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", mimeType)
		return nil
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}

// parseToResult は Gemini のレスポンスを解析して画像を取り出します。
// 整形式だが画像を含まない応答はすべて domain.ErrNoImage に正規化します。
func parseToResult(resp *gemini.Response) (*domain.ImageResult, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("%w: 有効な応答がありませんでした", domain.ErrNoImage)
	}

	// 最初の候補 (Candidate) のみを利用する
	candidate := resp.RawResponse.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.ImageResult{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w: 生成が異常終了しました (FinishReason: %s)", domain.ErrNoImage, candidate.FinishReason)
	}

	return nil, fmt.Errorf("%w", domain.ErrNoImage)
}

// classifyError は通信エラーをクォータ超過とそれ以外に分類します。
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("Gemini なじませ生成エラー: %w", err)
}
