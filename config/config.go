package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	WakeUp       WakeUpConfig       `mapstructure:"wakeup"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Remind       RemindConfig       `mapstructure:"remind"`
	Feature      FeatureConfig      `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	SSLMode      string `mapstructure:"sslmode"`
	Timezone     string `mapstructure:"timezone"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 宿主适配器（机器人端）调用 API 使用的 JWT 配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WakeUpConfig WakeUp 分享接口配置
type WakeUpConfig struct {
	Endpoints    []string      `mapstructure:"endpoints"`
	Timeout      time.Duration `mapstructure:"timeout"` // 单个端点的请求超时
	Version      string        `mapstructure:"version"` // 协议版本请求头
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// ScheduleConfig 课表查询相关配置
type ScheduleConfig struct {
	Timezone       string `mapstructure:"timezone"`
	AvatarTemplate string `mapstructure:"avatar_template"` // %s 替换为用户 ID
}

// ConversationConfig 交互式输入配置
type ConversationConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RemindConfig 上课提醒配置
type RemindConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Advance    int    `mapstructure:"advance"` // 提前提醒分钟数
	Spec       string `mapstructure:"spec"`    // cron 表达式（含秒）
	WebhookURL string `mapstructure:"webhook_url"`
}

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	SkipStore string `mapstructure:"skip_store"` // db | redis
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "wakeup_schedule")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "720h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("wakeup.endpoints", []string{
		"https://api.wakeup.fun/share_schedule/get",
		"https://i.wakeup.fun/share_schedule/get",
	})
	v.SetDefault("wakeup.timeout", "10s")
	v.SetDefault("wakeup.version", "280")
	v.SetDefault("wakeup.user_agent", "Mozilla/5.0")
	v.SetDefault("wakeup.max_body_bytes", 5*1024*1024)

	v.SetDefault("schedule.timezone", "Asia/Shanghai")
	v.SetDefault("schedule.avatar_template", "https://q1.qlogo.cn/g?b=qq&nk=%s&s=640")

	v.SetDefault("conversation.ttl", "120s")

	v.SetDefault("remind.enable", false)
	v.SetDefault("remind.advance", 10)
	v.SetDefault("remind.spec", "0 * * * * *")
	v.SetDefault("remind.webhook_url", "")

	v.SetDefault("feature.skip_store", "db")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("WAKEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if len(c.WakeUp.Endpoints) < 2 {
		return fmt.Errorf("配置校验失败: wakeup.endpoints 至少需要 2 个备用端点")
	}
	if c.WakeUp.Timeout <= 0 {
		return fmt.Errorf("配置校验失败: wakeup.timeout 必须大于 0")
	}
	switch c.Feature.SkipStore {
	case "db", "redis":
	default:
		return fmt.Errorf("配置校验失败: feature.skip_store 仅支持 db 或 redis")
	}
	if c.Remind.Enable && c.Remind.Advance <= 0 {
		return fmt.Errorf("配置校验失败: remind.advance 必须大于 0")
	}
	return nil
}
