package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

const cacheKeyMascot = "mascot:"

// Cache はマスコット素材をプロセス生存期間だけ保持するキャッシュです。
// 初回アクセスで一度だけ取得し、以降は同じバイト列を返します。
// 同時の初回アクセスは singleflight で1回の取得にまとめられます。
type Cache struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
	store      *gocache.Cache
	group      singleflight.Group
	source     string
}

// NewCache は依存関係を注入して Cache を初期化します。
// reader は gs:// ソースを使わない場合に限り nil を許容します。
func NewCache(httpClient httpkit.ClientInterface, reader remoteio.InputReader, source string) (*Cache, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}

	return &Cache{
		httpClient: httpClient,
		reader:     reader,
		store:      gocache.New(gocache.NoExpiration, 0),
		source:     source,
	}, nil
}

// Get はマスコット画像を返します。取得は最初の呼び出しで一度だけ行われ、
// 失敗した場合はキャッシュされず、次の呼び出しで再試行されます。
func (c *Cache) Get(ctx context.Context) (domain.RawImage, error) {
	key := cacheKeyMascot + c.source
	if val, ok := c.store.Get(key); ok {
		if img, ok := val.(domain.RawImage); ok {
			return img, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// singleflight の勝者が書き込むまでに別ゴルーチンが格納済みの可能性を確認
		if val, ok := c.store.Get(key); ok {
			return val, nil
		}

		data, err := c.fetch(ctx, c.source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAssetUnavailable, err)
		}

		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return nil, fmt.Errorf("%w: 取得データが画像ではありません (%s)", domain.ErrAssetUnavailable, mimeType)
		}

		img := domain.RawImage{Data: data, MimeType: mimeType}
		c.store.Set(key, img, gocache.NoExpiration)
		slog.InfoContext(ctx, "マスコット素材をキャッシュしました", "source", c.source, "bytes", len(data))
		return img, nil
	})
	if err != nil {
		return domain.RawImage{}, err
	}

	return v.(domain.RawImage), nil
}

// fetch はソースのスキームに応じて取得手段を切り替えます。
// gs:// は remoteio、http(s):// は httpkit、それ以外はローカルパスとして読みます。
func (c *Cache) fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "gs://"):
		if c.reader == nil {
			return nil, fmt.Errorf("gs:// ソースには reader が必要です")
		}
		rc, err := c.reader.Open(ctx, source)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		if safe, err := isSafeURL(source); err != nil || !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
		return c.httpClient.FetchBytes(ctx, source)

	default:
		return os.ReadFile(source)
	}
}
