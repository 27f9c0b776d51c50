package events

import (
	"sync"
	"time"
)

// 事件主题
const (
	// TopicKeyboardShown 输入框获得焦点（相当于软键盘弹出）
	TopicKeyboardShown = "keyboard.shown"
	// TopicFocusLost 视图失去焦点
	TopicFocusLost = "view.focus_lost"
)

// Event 总线上传递的事件
type Event struct {
	Topic     string
	Data      interface{}
	Timestamp time.Time
}

// Handler 事件处理函数
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus 内存事件总线
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscriber
	nextID   uint64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscriber),
	}
}

// Subscribe 订阅主题，返回的 Subscription 必须在不再需要时 Release
func (b *Bus) Subscribe(topic string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscriber{id: id, handler: handler})

	return &Subscription{bus: b, topic: topic, id: id}
}

// Publish 同步调用该主题的所有处理函数
func (b *Bus) Publish(topic string, data interface{}) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.handlers[topic]))
	copy(subs, b.handlers[topic])
	b.mu.RUnlock()

	event := Event{Topic: topic, Data: data, Timestamp: time.Now()}
	for _, s := range subs {
		s.handler(event)
	}
}

// Count 主题当前的订阅数量
func (b *Bus) Count(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

// Clear 清空所有订阅
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]subscriber)
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, s := range subs {
		if s.id == id {
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			b.handlers[topic] = append(next, subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}

// Subscription 一次订阅的句柄，Release 可重复调用
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
	once  sync.Once
}

// Release 取消订阅
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.unsubscribe(s.topic, s.id)
	})
}

// Topic 订阅的主题
func (s *Subscription) Topic() string {
	return s.topic
}
