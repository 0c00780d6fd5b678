package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"wakeup-schedule/config"
)

// ── WakeUp 分享接口客户端 ──────────────────────────────────
//
// 按配置顺序依次尝试各端点，不并发竞速；每次尝试有独立超时，
// 超时后请求随上下文一并取消，再进入下一个端点。
// ─────────────────────────────────────────────────────────────

var (
	ErrInvalidShareCode = errors.New("分享口令格式不正确")
	ErrFetchExhausted   = errors.New("所有课表接口均请求失败")
)

var (
	wrappedShareCode = regexp.MustCompile(`「([0-9a-zA-Z\-_]+?)」`)
	bareShareCode    = regexp.MustCompile(`^[0-9a-zA-Z\-_]+$`)
)

// NormalizeShareCode 从用户输入中提取分享口令
// 支持 WakeUp 分享文案中「…」包裹的口令，或直接输入的口令
func NormalizeShareCode(text string) (string, error) {
	text = strings.TrimSpace(text)
	if m := wrappedShareCode.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	if bareShareCode.MatchString(text) {
		return text, nil
	}
	return "", ErrInvalidShareCode
}

// ScheduleFetcher 课表分享数据获取接口
type ScheduleFetcher interface {
	// Fetch 返回分享接口 data 字段中的原始课表数据
	Fetch(ctx context.Context, shareCode string) (string, error)
}

// WakeupClient 基于 HTTP 的 ScheduleFetcher 实现
type WakeupClient struct {
	endpoints []string
	timeout   time.Duration
	version   string
	userAgent string
	maxBody   int64
	http      *http.Client
	logger    *zap.Logger
}

// NewWakeupClient 根据配置创建 WakeupClient
func NewWakeupClient(cfg *config.WakeUpConfig, logger *zap.Logger) *WakeupClient {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 * 1024 * 1024
	}
	return &WakeupClient{
		endpoints: cfg.Endpoints,
		timeout:   cfg.Timeout,
		version:   cfg.Version,
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
		http:      &http.Client{},
		logger:    logger,
	}
}

type shareResponse struct {
	Data *string `json:"data"`
}

// Fetch 依次请求各端点，首个返回非空 data 的端点即为结果
func (c *WakeupClient) Fetch(ctx context.Context, shareCode string) (string, error) {
	var causes []error
	for _, endpoint := range c.endpoints {
		payload, err := c.fetchOnce(ctx, endpoint, shareCode)
		if err == nil {
			return payload, nil
		}
		c.logger.Warn("课表接口请求失败，尝试下一个端点",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		causes = append(causes, fmt.Errorf("%s: %w", endpoint, err))

		// 调用方已取消时不再尝试剩余端点
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrFetchExhausted, errors.Join(causes...))
}

func (c *WakeupClient) fetchOnce(ctx context.Context, endpoint, shareCode string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("端点地址无效: %w", err)
	}
	q := u.Query()
	q.Set("key", shareCode)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("version", c.version)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	var result shareResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("响应不是合法 JSON (HTTP %d): %w", resp.StatusCode, err)
	}
	if result.Data == nil || *result.Data == "" {
		return "", fmt.Errorf("响应缺少 data 字段 (HTTP %d)", resp.StatusCode)
	}
	return *result.Data, nil
}
