package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"
)

// DefaultStopTimeout 停止钩子的总超时
const DefaultStopTimeout = 30 * time.Second

// Manager 生命周期管理器
type Manager struct {
	logger      *kratoslog.Helper
	hooks       []Hook
	started     int
	stopTimeout time.Duration
	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	stopOnce    sync.Once
}

// Hook 生命周期钩子
type Hook struct {
	Name     string
	OnStart  func(context.Context) error
	OnStop   func(context.Context) error
	Priority int // 数字越小越先启动，越晚停止
	// 0-99:    基础设施（数据库、缓存、索引、遥测）
	// 100-199: 服务器
	// 200+:    后台消费者
}

// NewManager 创建生命周期管理器
func NewManager(logger kratoslog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:      kratoslog.NewHelper(logger),
		stopTimeout: DefaultStopTimeout,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// AddHook 添加钩子，同优先级按添加顺序执行
func (m *Manager) AddHook(hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = append(m.hooks, hook)
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
}

// Start 按优先级启动钩子，失败时停止已启动的钩子
func (m *Manager) Start() error {
	m.mu.Lock()
	hooks := append([]Hook(nil), m.hooks...)
	m.mu.Unlock()

	m.logger.Infow("msg", "Starting lifecycle hooks", "count", len(hooks))
	for i, hook := range hooks {
		if hook.OnStart != nil {
			if err := hook.OnStart(m.ctx); err != nil {
				m.logger.Errorw("msg", "Hook start failed", "name", hook.Name, "error", err)
				m.mu.Lock()
				m.started = i
				m.mu.Unlock()
				return errors.Join(err, m.Stop())
			}
			m.logger.Infow("msg", "Hook started", "name", hook.Name)
		}
		m.mu.Lock()
		m.started = i + 1
		m.mu.Unlock()
	}
	m.logger.Infow("msg", "All lifecycle hooks started")
	return nil
}

// Stop 逆序停止已启动的钩子，只执行一次
func (m *Manager) Stop() error {
	var stopErr error
	m.stopOnce.Do(func() {
		m.mu.Lock()
		hooks := append([]Hook(nil), m.hooks[:m.started]...)
		m.mu.Unlock()

		// 先取消生命周期上下文，后台任务随之退出
		m.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), m.stopTimeout)
		defer cancel()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			hook := hooks[i]
			if hook.OnStop == nil {
				continue
			}
			if err := hook.OnStop(ctx); err != nil {
				m.logger.Errorw("msg", "Hook stop failed", "name", hook.Name, "error", err)
				errs = append(errs, err)
				continue
			}
			m.logger.Infow("msg", "Hook stopped", "name", hook.Name)
		}
		stopErr = errors.Join(errs...)

		close(m.done)
		m.logger.Infow("msg", "All lifecycle hooks stopped")
	})
	return stopErr
}

// Wait 阻塞到收到退出信号或被停止
func (m *Manager) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.logger.Infow("msg", "Received signal", "signal", sig.String())
		return m.Stop()
	case <-m.done:
		return nil
	}
}

// Context 生命周期上下文，停止时取消
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Done 停止完成
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
