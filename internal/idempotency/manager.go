// Package idempotency 为操作结果提供基于缓存的去重存储。
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/internal/cache"
)

const keyPrefix = "idempotency:"

// Manager 幂等性管理器
// 相同输入生成相同的键，命中时直接返回缓存结果
type Manager struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager 基于任意 cache.Store 创建幂等性管理器，ttl <= 0 时默认 1 小时
func NewManager(store cache.Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, ttl: ttl, logger: logger.With(zap.String("component", "idempotency"))}
}

// GenerateKey 使用 SHA256 生成幂等键
func (m *Manager) GenerateKey(inputs ...any) (string, error) {
	if len(inputs) == 0 {
		return "", errors.New("至少需要一个输入参数")
	}
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("序列化输入失败: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Get 获取缓存的结果，未命中时 found 为 false
func (m *Manager) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, err := m.store.Get(ctx, keyPrefix+key)
	if err != nil {
		if cache.IsCacheMiss(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取幂等键失败: %w", err)
	}
	m.logger.Debug("幂等键命中", zap.String("key", key), zap.Int("data_size", len(raw)))
	return json.RawMessage(raw), true, nil
}

// Set 存储结果
func (m *Manager) Set(ctx context.Context, key string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	if err := m.store.Set(ctx, keyPrefix+key, string(data), m.ttl); err != nil {
		return fmt.Errorf("存储幂等键失败: %w", err)
	}
	m.logger.Debug("幂等键已存储", zap.String("key", key), zap.Duration("ttl", m.ttl))
	return nil
}

// Delete 删除缓存
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.store.Delete(ctx, keyPrefix+key)
}

// GetTyped 读取并反序列化为 T
func GetTyped[T any](ctx context.Context, m *Manager, key string) (T, bool, error) {
	var zero T
	raw, found, err := m.Get(ctx, key)
	if err != nil || !found {
		return zero, found, err
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return zero, false, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return result, true, nil
}
