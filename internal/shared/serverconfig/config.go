package serverconfig

import (
	"os"
	"sync/atomic"
	"time"

	"Vic2Economy/internal/shared/config"
)

const (
	DefaultOverseasPenalty = 0.25
	DefaultAskTimeout      = 3 * time.Second
	DefaultMaxUploadMB     = 256
	DefaultFlushEvery      = 3 * time.Second
)

var current atomic.Pointer[Config]

// Load 读取配置并开启热更新；变更后的配置经 Current 读取。
// onReload 可为空，热更新解码失败时以 err 回调，当前配置保持不变。
func Load(cfgName string, onReload func(*Config, error)) (*Config, error) {
	conf, err := config.Load(cfgName, func(next *Config, err error) {
		if err == nil {
			next.applyDefaults()
			current.Store(next)
		}
		if onReload != nil {
			onReload(next, err)
		}
	})
	if err != nil {
		return nil, err
	}
	conf.applyDefaults()
	current.Store(conf)
	return conf, nil
}

// Current 返回最近一次成功加载的配置；未加载时返回默认值。
func Current() *Config {
	if c := current.Load(); c != nil {
		return c
	}
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	// 环境变量优先；若未设置则回填配置中的 jwt_secret，兼容本地开发场景。
	if os.Getenv("JWT_SECRET") == "" && c.Auth.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", c.Auth.JWTSecret)
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Storage.FlushEvery <= 0 {
		c.Storage.FlushEvery = DefaultFlushEvery
	}
	if c.Query.OverseasPenalty == nil {
		p := DefaultOverseasPenalty
		c.Query.OverseasPenalty = &p
	}
	if c.Query.AskTimeout <= 0 {
		c.Query.AskTimeout = DefaultAskTimeout
	}
	if c.Decode.MaxUploadMB <= 0 {
		c.Decode.MaxUploadMB = DefaultMaxUploadMB
	}
}

// Penalty 返回海外惩罚系数。
func (q QueryConfig) Penalty() float64 {
	if q.OverseasPenalty == nil {
		return DefaultOverseasPenalty
	}
	return *q.OverseasPenalty
}
