// Package clock 提供可注入的时间源，便于对“当前时间”做确定性测试
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock 时间源
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// System 系统时钟，返回指定时区下的当前时间
type System struct {
	loc *time.Location
}

// NewSystem 按 IANA 时区名创建系统时钟；name 为空时使用本地时区
func NewSystem(name string) (*System, error) {
	if name == "" {
		return &System{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", name, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time           { return time.Now().In(s.loc) }
func (s *System) Location() *time.Location { return s.loc }

// Fixed 固定时钟，测试用
type Fixed struct {
	mu sync.RWMutex
	t  time.Time
}

// NewFixed 创建停在 t 的时钟
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.t
}

func (f *Fixed) Location() *time.Location {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.t.Location()
}

// Set 将时钟拨到 t
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance 将时钟前拨 d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
