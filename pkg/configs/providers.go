package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAssemblyAIBaseURL      = "https://api.assemblyai.com" // AssemblyAI API 基础地址
	DefaultAssemblyAIPollInterval = 3                            // 转写轮询间隔（秒）
	DefaultAssemblyAIPollTimeout  = 1800                         // 转写轮询超时（秒）
	DefaultSignedURLExpiry        = 3600                         // 提供给转写服务的签名URL有效期（秒）

	DefaultAnthropicBaseURL   = "https://api.anthropic.com"  // Anthropic API 基础地址
	DefaultAnthropicModel     = "claude-sonnet-4-5-20250929" // 默认模型
	DefaultAnthropicMaxTokens = 4096                         // 默认最大输出 token 数

	DefaultYouTubeTranscriptBaseURL = "https://www.youtube-transcript.io/api" // youtube-transcript.io API 地址
)

// ProvidersConfig 外部提供商（语音转写、LLM、字幕抓取）及内部调用的配置.
type ProvidersConfig struct {
	AssemblyAI        AssemblyAIConfig        `mapstructure:"assemblyai"`
	Anthropic         AnthropicConfig         `mapstructure:"anthropic"`
	YouTubeTranscript YouTubeTranscriptConfig `mapstructure:"youtube_transcript"`
	// InternalSecret 服务间调用分析接口时使用的共享密钥，携带于 X-Internal-Secret 请求头
	InternalSecret string `mapstructure:"internal_secret"`
}

// AssemblyAIConfig 语音转写提供商配置.
type AssemblyAIConfig struct {
	APIKey          string `mapstructure:"api_key"           rule:"required"`
	BaseURL         string `mapstructure:"base_url"          rule:"url"`
	PollInterval    int    `mapstructure:"poll_interval"     rule:"min=1,max=60"`   // 轮询间隔（秒）
	PollTimeout     int    `mapstructure:"poll_timeout"      rule:"min=10"`         // 轮询超时（秒）
	SignedURLExpiry int    `mapstructure:"signed_url_expiry" rule:"min=60,max=604800"` // 签名URL有效期（秒）
}

// GetPollInterval 返回轮询间隔作为 time.Duration.
func (c *AssemblyAIConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// GetPollTimeout 返回轮询超时作为 time.Duration.
func (c *AssemblyAIConfig) GetPollTimeout() time.Duration {
	return time.Duration(c.PollTimeout) * time.Second
}

// GetSignedURLExpiry 返回签名URL有效期作为 time.Duration.
func (c *AssemblyAIConfig) GetSignedURLExpiry() time.Duration {
	return time.Duration(c.SignedURLExpiry) * time.Second
}

// AnthropicConfig LLM 提供商配置，分析与聊天共用.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"    rule:"required"`
	BaseURL   string `mapstructure:"base_url"   rule:"url"`
	Model     string `mapstructure:"model"      rule:"required"`
	MaxTokens int    `mapstructure:"max_tokens" rule:"min=1,max=65536"`
}

// YouTubeTranscriptConfig youtube-transcript.io 字幕抓取配置.
type YouTubeTranscriptConfig struct {
	Token   string `mapstructure:"token"    rule:"required"`
	BaseURL string `mapstructure:"base_url" rule:"url"`
}

// setDefaults 设置外部提供商配置的默认值，密钥只能通过配置或环境变量提供.
func (c *ProvidersConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("providers.assemblyai.api_key", "")
	v.SetDefault("providers.assemblyai.base_url", DefaultAssemblyAIBaseURL)
	v.SetDefault("providers.assemblyai.poll_interval", DefaultAssemblyAIPollInterval)
	v.SetDefault("providers.assemblyai.poll_timeout", DefaultAssemblyAIPollTimeout)
	v.SetDefault("providers.assemblyai.signed_url_expiry", DefaultSignedURLExpiry)

	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.anthropic.base_url", DefaultAnthropicBaseURL)
	v.SetDefault("providers.anthropic.model", DefaultAnthropicModel)
	v.SetDefault("providers.anthropic.max_tokens", DefaultAnthropicMaxTokens)

	v.SetDefault("providers.youtube_transcript.token", "")
	v.SetDefault("providers.youtube_transcript.base_url", DefaultYouTubeTranscriptBaseURL)

	v.SetDefault("providers.internal_secret", "")
}
