package selection

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	was := !ft.stopped && !ft.fired
	ft.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Advance 推进时间并同步触发到期的计时器
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired && ft.at <= c.now {
			ft.fired = true
			due = append(due, ft)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, ft := range due {
		ft.f()
	}
}

var word = []Rect{{Left: 100, Top: 50, Width: 80, Height: 20}}

func newTracker(opts ...Option) (*Tracker, *fakeClock) {
	clock := &fakeClock{}
	return NewTracker(append([]Option{WithClock(clock)}, opts...)...), clock
}

func TestSelectShowsImmediately(t *testing.T) {
	tr, _ := newTracker()
	tr.SelectionChanged("  Hello world ", word)

	snap := tr.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, MenuVisible, snap.State)
	assert.Equal(t, "Hello world", snap.Text)
	assert.GreaterOrEqual(t, snap.Anchor.X, word[0].Left)
	assert.LessOrEqual(t, snap.Anchor.X, word[0].Left+word[0].Width)
	assert.Equal(t, 140.0, snap.Anchor.X)
	assert.Equal(t, 40.0, snap.Anchor.Y)
}

func TestOnlyFirstRangeIsUsed(t *testing.T) {
	tr, _ := newTracker()
	tr.SelectionChanged("two ranges", []Rect{
		{Left: 0, Top: 100, Width: 20, Height: 10},
		{Left: 500, Top: 300, Width: 60, Height: 10},
	})
	assert.Equal(t, 10.0, tr.Snapshot().Anchor.X)
	assert.Equal(t, 90.0, tr.Snapshot().Anchor.Y)
}

func TestWhitespaceSelectionIgnored(t *testing.T) {
	tr, _ := newTracker()
	tr.SelectionChanged("   \n", word)
	assert.False(t, tr.Snapshot().Visible)
}

func TestSelectionWithoutRectIgnored(t *testing.T) {
	tr, _ := newTracker()
	tr.SelectionChanged("Hello", nil)
	assert.False(t, tr.Snapshot().Visible)
}

func TestClearHidesAfterGrace(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.SelectionChanged("", nil)

	clock.Advance(199 * time.Millisecond)
	assert.True(t, tr.Snapshot().Visible, "still inside the grace period")

	clock.Advance(2 * time.Millisecond)
	snap := tr.Snapshot()
	assert.False(t, snap.Visible)
	assert.Equal(t, Hidden, snap.State)
	assert.Empty(t, snap.Text)
}

func TestReselectCancelsPendingHide(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.SelectionChanged("", nil)
	clock.Advance(150 * time.Millisecond)

	tr.SelectionChanged("World", word)
	clock.Advance(time.Second)

	snap := tr.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, "World", snap.Text)
}

func TestRepeatedClearRestartsGrace(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.SelectionChanged("", nil)
	clock.Advance(150 * time.Millisecond)
	tr.SelectionChanged("", nil)

	clock.Advance(100 * time.Millisecond)
	assert.True(t, tr.Snapshot().Visible)
	clock.Advance(100 * time.Millisecond)
	assert.False(t, tr.Snapshot().Visible)
}

func TestHoverOverridesGrace(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.PointerMove(TargetMenu, "Hello")
	tr.SelectionChanged("", nil)

	clock.Advance(time.Second)
	assert.True(t, tr.Snapshot().Visible, "pointer is over the menu")

	tr.HoverLeave()
	clock.Advance(time.Second)
	assert.False(t, tr.Snapshot().Visible)
}

func TestHideClearsHover(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.HoverEnter(TargetMenu)
	tr.Hide()

	tr.SelectionChanged("World", word)
	tr.SelectionChanged("", nil)
	clock.Advance(2 * DefaultGrace)
	assert.False(t, tr.Snapshot().Visible)
	assert.Equal(t, Hidden, tr.Snapshot().State)
}

func TestOutsideClickClearsHover(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.HoverEnter(TargetResult)
	tr.OutsideClick()

	tr.SelectionChanged("World", word)
	tr.SelectionChanged("", nil)
	clock.Advance(2 * DefaultGrace)
	assert.False(t, tr.Snapshot().Visible)
}

func TestHoverEnterOverResult(t *testing.T) {
	tr, clock := newTracker()
	tr.SelectionChanged("Hello", word)
	require.True(t, tr.ShowResult())
	tr.HoverEnter(TargetResult)
	tr.SelectionChanged("", nil)

	clock.Advance(time.Second)
	assert.Equal(t, ResultVisible, tr.Snapshot().State)
}

func TestPointerMoveOutsideWithEmptySelectionHides(t *testing.T) {
	tests := []struct {
		name      string
		target    Target
		selection string
		visible   bool
	}{
		{name: "page with empty selection", target: TargetPage, selection: "", visible: false},
		{name: "page with selection", target: TargetPage, selection: "Hello", visible: true},
		{name: "menu with empty selection", target: TargetMenu, selection: "", visible: true},
		{name: "result with empty selection", target: TargetResult, selection: " ", visible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTracker()
			tr.SelectionChanged("Hello", word)
			tr.PointerMove(tt.target, tt.selection)
			assert.Equal(t, tt.visible, tr.Snapshot().Visible)
		})
	}
}

func TestPointerMoveWhileHiddenIsNoop(t *testing.T) {
	tr, _ := newTracker()
	var calls int
	tr.OnChange(func(Snapshot) { calls++ })
	tr.PointerMove(TargetPage, "")
	assert.Zero(t, calls)
}

func TestMenuStates(t *testing.T) {
	tr, _ := newTracker()
	assert.False(t, tr.ToggleMenu(), "nothing to toggle while hidden")
	assert.False(t, tr.ShowResult())

	tr.SelectionChanged("Hello", word)
	require.True(t, tr.ToggleMenu())
	assert.Equal(t, MenuExpanded, tr.Snapshot().State)
	require.True(t, tr.ToggleMenu())
	assert.Equal(t, MenuVisible, tr.Snapshot().State)

	tr.ToggleMenu()
	require.True(t, tr.ShowResult())
	assert.Equal(t, ResultVisible, tr.Snapshot().State)

	tr.CloseResult()
	assert.Equal(t, MenuVisible, tr.Snapshot().State)

	tr.OutsideClick()
	assert.Equal(t, Hidden, tr.Snapshot().State)
}

func TestReselectKeepsExpandedMenu(t *testing.T) {
	tr, _ := newTracker()
	tr.SelectionChanged("Hello", word)
	tr.ToggleMenu()
	tr.SelectionChanged("Hello again", word)
	assert.Equal(t, MenuExpanded, tr.Snapshot().State)
}

func TestHideCancelsTimer(t *testing.T) {
	tr, clock := newTracker()
	var states []State
	tr.OnChange(func(s Snapshot) { states = append(states, s.State) })

	tr.SelectionChanged("Hello", word)
	tr.SelectionChanged("", nil)
	tr.Hide()
	tr.SelectionChanged("Again", word)
	clock.Advance(time.Second)

	assert.Equal(t, []State{MenuVisible, Hidden, MenuVisible}, states)
}

func TestPointerDrivenDefersUntilPointerUp(t *testing.T) {
	tr, _ := newTracker(WithPointerDriven())
	tr.PointerDown()
	tr.SelectionChanged("Hel", word)
	tr.SelectionChanged("Hello", word)
	assert.False(t, tr.Snapshot().Visible)

	tr.PointerUp("Hello", word)
	snap := tr.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, "Hello", snap.Text)

	// 抬起后的选区变化照常生效
	tr.SelectionChanged("Hello world", word)
	assert.Equal(t, "Hello world", tr.Snapshot().Text)
}

func TestUnsubscribe(t *testing.T) {
	tr, _ := newTracker()
	var calls int
	stop := tr.OnChange(func(Snapshot) { calls++ })
	tr.SelectionChanged("Hello", word)
	stop()
	tr.Hide()
	assert.Equal(t, 1, calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "hidden", Hidden.String())
	assert.Equal(t, "menu-visible", MenuVisible.String())
	assert.Equal(t, "menu-expanded", MenuExpanded.String())
	assert.Equal(t, "result-visible", ResultVisible.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestRealClockHides(t *testing.T) {
	tr := NewTracker(WithGrace(10 * time.Millisecond))
	tr.SelectionChanged("Hello", word)
	tr.SelectionChanged("", nil)

	assert.Eventually(t, func() bool { return !tr.Snapshot().Visible }, time.Second, 5*time.Millisecond)
}
