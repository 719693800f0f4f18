package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config はパイプライン全体の設定を保持します。
type Config struct {
	Image  ImageConfig  `mapstructure:"image"`
	Blend  BlendConfig  `mapstructure:"blend"`
	Mascot MascotConfig `mapstructure:"mascot"`
}

// ImageConfig は画像処理まわりの設定です。
type ImageConfig struct {
	OutputSize  int `mapstructure:"output_size"`  // 最終出力の一辺（正方形）
	AISize      int `mapstructure:"ai_size"`      // プロバイダへ送る縮小版の一辺
	JPEGQuality int `mapstructure:"jpeg_quality"` // 送信画像のJPEG品質
	MaskPadPx   int `mapstructure:"mask_pad_px"`  // インペイントマスクのパディング
}

// BlendConfig は生成プロバイダの呼び出しポリシーです。
type BlendConfig struct {
	Model                string        `mapstructure:"model"`
	Mode                 string        `mapstructure:"mode"` // "whole_image" | "region_edit"
	FirstAttemptTimeout  time.Duration `mapstructure:"first_attempt_timeout"`
	SecondAttemptTimeout time.Duration `mapstructure:"second_attempt_timeout"`
	RetryBackoff         time.Duration `mapstructure:"retry_backoff"`
	RateInterval         time.Duration `mapstructure:"rate_interval"`
}

// MascotConfig はマスコット素材の取得元です。
type MascotConfig struct {
	Source string `mapstructure:"source"` // ローカルパス, http(s)://, gs://
}

// Load は YAML ファイルから設定を読み込みます。
// 未指定の項目にはすべて既定値が入ります。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗しました: %w", err)
	}

	return &cfg, nil
}

// Default は既定値のみの設定を返します。
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// 既定値のみの展開は失敗しない
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("image.output_size", 1024)
	v.SetDefault("image.ai_size", 768)
	v.SetDefault("image.jpeg_quality", 85)
	v.SetDefault("image.mask_pad_px", 32)

	v.SetDefault("blend.model", "gemini-2.5-flash-image")
	v.SetDefault("blend.mode", "whole_image")
	v.SetDefault("blend.first_attempt_timeout", 12*time.Second)
	v.SetDefault("blend.second_attempt_timeout", 10*time.Second)
	v.SetDefault("blend.retry_backoff", 1200*time.Millisecond)
	v.SetDefault("blend.rate_interval", time.Second)

	v.SetDefault("mascot.source", "assets/zundamon.png")
}
