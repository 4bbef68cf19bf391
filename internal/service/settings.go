package service

import (
	"strings"
	"sync"
)

// SettingsService 维护运行期可变的监控设置。
// 当前只有被监控邮箱地址一项，读多写少，用读写锁保护。
type SettingsService struct {
	mu        sync.RWMutex
	monitored string
}

// NewSettingsService 创建设置服务，initial 为配置文件中的初始地址。
func NewSettingsService(initial string) *SettingsService {
	return &SettingsService{monitored: normalizeAddress(initial)}
}

// MonitoredAddress 返回当前被监控的邮箱地址，未设置时为空字符串。
func (s *SettingsService) MonitoredAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monitored
}

// SetMonitoredAddress 更新被监控的邮箱地址。
func (s *SettingsService) SetMonitoredAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitored = normalizeAddress(address)
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
