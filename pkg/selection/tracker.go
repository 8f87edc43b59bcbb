package selection

import (
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"strings"
	"sync"
	"time"
)

const (
	DefaultGrace = 200 * time.Millisecond
	// 锚点在选区上沿之上的偏移
	anchorLift = 10
)

type State int

const (
	Hidden State = iota
	MenuVisible
	MenuExpanded
	ResultVisible
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case MenuVisible:
		return "menu-visible"
	case MenuExpanded:
		return "menu-expanded"
	case ResultVisible:
		return "result-visible"
	}
	return "unknown"
}

// Target 指针所在的区域
type Target int

const (
	TargetPage Target = iota
	TargetMenu
	TargetResult
)

func (t Target) affordance() bool {
	return t == TargetMenu || t == TargetResult
}

// Rect 选区的包围盒，坐标为视口坐标
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Anchor 选区水平中点，上沿之上 10px
func (r Rect) Anchor() models.Position {
	return models.Position{X: r.Left + r.Width/2, Y: r.Top - anchorLift}
}

type Snapshot struct {
	State   State           `json:"-"`
	Visible bool            `json:"visible"`
	Anchor  models.Position `json:"anchor"`
	Text    string          `json:"text"`
}

type Option func(*Tracker)

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithGrace(d time.Duration) Option {
	return func(t *Tracker) { t.grace = d }
}

// WithPointerDriven 拖选过程中忽略选区变化，松开指针时再读取选区
func WithPointerDriven() Option {
	return func(t *Tracker) { t.pointerDriven = true }
}

// Tracker 根据选区与指针事件推导浮动菜单的可见性
//
// 状态: hidden -> menu-visible <-> menu-expanded -> result-visible
// 选区清空不会立刻隐藏，要等 grace 过去且没有新的选区；
// 指针停在菜单或结果卡片上时计时器到期也不隐藏。
type Tracker struct {
	clock         Clock
	grace         time.Duration
	pointerDriven bool

	mu            sync.Mutex
	state         State
	anchor        models.Position
	text          string
	selectionGone bool
	hovering      bool
	pointerDown   bool
	timer         Timer
	gen           uint64
	observers     map[int]func(Snapshot)
	nextID        int
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		clock:     realClock{},
		grace:     DefaultGrace,
		observers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() Snapshot {
	return Snapshot{State: t.state, Visible: t.state != Hidden, Anchor: t.anchor, Text: t.text}
}

// OnChange 每次状态变化后回调，返回取消订阅的函数
func (t *Tracker) OnChange(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.observers[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

// SelectionChanged 宿主页面的选区变化。ranges 为各选区的包围盒，只用第一个
func (t *Tracker) SelectionChanged(text string, ranges []Rect) {
	t.mu.Lock()
	if t.pointerDriven && t.pointerDown {
		t.mu.Unlock()
		return
	}
	changed := t.applySelection(text, ranges)
	t.commit(changed)
}

func (t *Tracker) PointerDown() {
	t.mu.Lock()
	t.pointerDown = true
	t.mu.Unlock()
}

// PointerUp 指针松开，text/ranges 为此刻的选区
func (t *Tracker) PointerUp(text string, ranges []Rect) {
	t.mu.Lock()
	t.pointerDown = false
	changed := t.applySelection(text, ranges)
	t.commit(changed)
}

// PointerMove 可见时指针移出菜单和结果卡片，且当前没有选中文本，立即隐藏
func (t *Tracker) PointerMove(target Target, selection string) {
	t.mu.Lock()
	t.hovering = target.affordance()
	changed := false
	if t.state != Hidden && !t.hovering && strings.TrimSpace(selection) == "" {
		changed = t.hide("pointer left affordance")
	}
	t.commit(changed)
}

func (t *Tracker) HoverEnter(target Target) {
	t.mu.Lock()
	if target.affordance() {
		t.hovering = true
	}
	t.mu.Unlock()
}

// HoverLeave 离开浮动区域时，如果选区已经清空，重新开始计时
func (t *Tracker) HoverLeave() {
	t.mu.Lock()
	t.hovering = false
	if t.state != Hidden && t.selectionGone {
		t.scheduleHide()
	}
	t.mu.Unlock()
}

func (t *Tracker) OutsideClick() {
	t.mu.Lock()
	changed := t.hide("outside click")
	t.commit(changed)
}

// Hide 调用方要求全部收起
func (t *Tracker) Hide() {
	t.mu.Lock()
	changed := t.hide("requested")
	t.commit(changed)
}

// ToggleMenu 菜单按钮: 展开/收起操作列表
func (t *Tracker) ToggleMenu() bool {
	t.mu.Lock()
	changed := true
	switch t.state {
	case MenuVisible, ResultVisible:
		t.state = MenuExpanded
	case MenuExpanded:
		t.state = MenuVisible
	default:
		changed = false
	}
	t.commit(changed)
	return changed
}

// ShowResult 切换到结果卡片，隐藏状态下无效
func (t *Tracker) ShowResult() bool {
	t.mu.Lock()
	changed := false
	if t.state != Hidden && t.state != ResultVisible {
		t.state = ResultVisible
		changed = true
	}
	shown := t.state == ResultVisible
	t.commit(changed)
	return shown
}

// CloseResult 关闭结果卡片，保留菜单按钮
func (t *Tracker) CloseResult() {
	t.mu.Lock()
	changed := false
	if t.state == ResultVisible {
		t.state = MenuVisible
		changed = true
	}
	t.commit(changed)
}

// applySelection 需持有锁
func (t *Tracker) applySelection(text string, ranges []Rect) bool {
	t.cancelHide()

	text = strings.TrimSpace(text)
	if text == "" {
		t.selectionGone = true
		if t.state != Hidden {
			t.scheduleHide()
		}
		return false
	}
	if len(ranges) == 0 {
		// 有文本却拿不到包围盒，无法定位
		return false
	}

	t.selectionGone = false
	t.anchor = ranges[0].Anchor()
	t.text = text
	if t.state == Hidden {
		t.state = MenuVisible
	}
	return true
}

func (t *Tracker) scheduleHide() {
	t.cancelHide()
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.grace, func() { t.graceExpired(gen) })
}

func (t *Tracker) cancelHide() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *Tracker) graceExpired(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		// 计时器已被新的选区或重新计时取代
		t.mu.Unlock()
		return
	}
	t.timer = nil
	changed := false
	if !t.hovering && t.selectionGone {
		changed = t.hide("grace expired")
	}
	t.commit(changed)
}

func (t *Tracker) hide(reason string) bool {
	t.cancelHide()
	// 菜单和卡片被移除后不会再收到 hoverLeave
	t.hovering = false
	if t.state == Hidden {
		return false
	}
	logger.Logger.Debug("selection affordance hidden", "reason", reason, "from", t.state.String())
	t.state = Hidden
	t.text = ""
	return true
}

// commit 释放锁，有变化时通知订阅者
func (t *Tracker) commit(changed bool) {
	if !changed {
		t.mu.Unlock()
		return
	}
	snap := t.snapshot()
	fns := make([]func(Snapshot), 0, len(t.observers))
	for id := 0; id < t.nextID; id++ {
		if fn, ok := t.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
