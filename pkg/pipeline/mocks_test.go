package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/shouni/zunda-photo-kit/pkg/domain"
)

// --- Mocks ---

// mockProvider は generator.BlendProvider のテスト用モックなのだ。
type mockProvider struct {
	blendFunc func(ctx context.Context, req domain.BlendRequest) (*domain.ImageResult, error)
	calls     int64
}

func (m *mockProvider) Blend(ctx context.Context, req domain.BlendRequest) (*domain.ImageResult, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.blendFunc != nil {
		return m.blendFunc(ctx, req)
	}
	return nil, domain.ErrNoImage
}

func (m *mockProvider) callCount() int64 {
	return atomic.LoadInt64(&m.calls)
}

// mockMascotSource は MascotSource のテスト用モックなのだ。
type mockMascotSource struct {
	img domain.RawImage
	err error
}

func (m *mockMascotSource) Get(ctx context.Context) (domain.RawImage, error) {
	if m.err != nil {
		return domain.RawImage{}, m.err
	}
	return m.img, nil
}
