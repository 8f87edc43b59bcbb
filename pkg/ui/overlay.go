package ui

import (
	"context"
	"fmt"
	"selection_assistant/models/models"
	"selection_assistant/pkg/logger"
	"selection_assistant/pkg/selection"
	"selection_assistant/pkg/settings"
	"sync"
)

// 结果卡片在锚点下方的偏移
const resultOffset = 20

const (
	msgNotValidated = "请先在设置中正确配置并测试 API"
	msgNoSelection  = "请先选择文本"
	msgCopied       = "已复制到剪贴板"
	msgCopyFailed   = "复制失败，请重试"
)

// View 浮动层当前应渲染的内容
type View struct {
	Selection selection.Snapshot  `json:"selection"`
	State     string              `json:"state"`
	Result    *models.ResultState `json:"result,omitempty"`
	ResultAt  *models.Position    `json:"resultAt,omitempty"`
}

// Overlay 页面内的浮动菜单与结果卡片
type Overlay struct {
	tracker   *selection.Tracker
	sender    Sender
	notifier  Notifier
	clipboard Clipboard

	mu       sync.Mutex
	settings models.Settings
	seq      uint64
	result   *models.ResultState
	onUpdate []func(View)
	stops    []func()
}

func NewOverlay(ctx context.Context, tracker *selection.Tracker, store *settings.Store, sender Sender, n Notifier, c Clipboard) (*Overlay, error) {
	current, err := store.Get(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		tracker:   tracker,
		sender:    sender,
		notifier:  n,
		clipboard: c,
		settings:  current,
	}
	o.stops = append(o.stops,
		store.OnChange(o.settingsChanged),
		tracker.OnChange(o.selectionChanged),
	)
	return o, nil
}

// Close 取消对设置与选区的订阅
func (o *Overlay) Close() {
	for _, stop := range o.stops {
		stop()
	}
	o.stops = nil
}

// OnUpdate 视图变化时回调
func (o *Overlay) OnUpdate(fn func(View)) {
	o.mu.Lock()
	o.onUpdate = append(o.onUpdate, fn)
	o.mu.Unlock()
}

func (o *Overlay) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view()
}

func (o *Overlay) view() View {
	snap := o.tracker.Snapshot()
	v := View{Selection: snap, State: snap.State.String()}
	if o.result != nil && snap.State == selection.ResultVisible {
		r := *o.result
		at := models.Position{X: snap.Anchor.X, Y: snap.Anchor.Y + resultOffset}
		v.Result = &r
		v.ResultAt = &at
	}
	return v
}

func (o *Overlay) settingsChanged(s models.Settings) {
	o.mu.Lock()
	o.settings = s
	o.mu.Unlock()
}

// selectionChanged 离开结果卡片状态时丢弃当前结果，也让在途请求失效
func (o *Overlay) selectionChanged(snap selection.Snapshot) {
	o.mu.Lock()
	if snap.State != selection.ResultVisible && o.result != nil {
		o.result = nil
		o.seq++
	}
	o.mu.Unlock()
	o.publish()
}

func (o *Overlay) publish() {
	o.mu.Lock()
	v := o.view()
	fns := make([]func(View), len(o.onUpdate))
	copy(fns, o.onUpdate)
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (o *Overlay) ToggleMenu() {
	o.tracker.ToggleMenu()
}

func (o *Overlay) CloseResult() {
	o.tracker.CloseResult()
}

// hideAll 收起菜单和结果卡片
func (o *Overlay) hideAll() {
	o.tracker.Hide()
}

// RunAction 对当前选中的文本执行 translate 或 explain。
// 返回的 channel 在结果被渲染或被判定过期后关闭
func (o *Overlay) RunAction(ctx context.Context, typ models.ResultType) <-chan struct{} {
	done := make(chan struct{})

	o.mu.Lock()
	current := o.settings
	o.mu.Unlock()
	snap := o.tracker.Snapshot()

	if !current.IsValidated {
		o.notifier.Notify(errorToast(msgNotValidated))
		o.hideAll()
		close(done)
		return done
	}
	if !snap.Visible || snap.Text == "" {
		o.notifier.Notify(errorToast(msgNoSelection))
		close(done)
		return done
	}

	o.mu.Lock()
	o.seq++
	mine := o.seq
	o.result = &models.ResultState{Type: typ, Loading: true}
	o.mu.Unlock()
	o.tracker.ShowResult()
	o.publish()

	fut := o.sender.Send(ctx, models.ActionRequest{
		Kind:       typ.Kind(),
		Config:     current.APIConfig(),
		Text:       snap.Text,
		TargetLang: current.TargetLang,
	})

	go func() {
		defer close(done)
		res, err := fut.Await(ctx)
		if err != nil {
			res = models.Failure(models.NewError(models.ErrNetwork, err.Error()))
		}
		o.apply(mine, typ, res)
	}()
	return done
}

func (o *Overlay) apply(seq uint64, typ models.ResultType, res models.ActionResult) {
	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		logger.Logger.Debug("discarding stale action result", "type", string(typ), "seq", seq)
		return
	}
	if res.OK {
		o.result = &models.ResultState{Type: typ, Text: res.Value}
		o.mu.Unlock()
		o.publish()
		return
	}
	o.result = nil
	o.seq++
	o.mu.Unlock()

	msg := "unknown error"
	if res.Error != nil {
		msg = res.Error.Message
	}
	logger.Logger.Error("action failed", "type", string(typ), "error", msg)
	o.notifier.Notify(errorToast(fmt.Sprintf("%s失败，请重试: %s", typ.Label(), msg)))
	o.hideAll()
}

// Copy 复制选中的文本
func (o *Overlay) Copy(ctx context.Context) error {
	text := o.tracker.Snapshot().Text
	if text == "" {
		o.notifier.Notify(errorToast(msgNoSelection))
		return models.NewError(models.ErrValidation, "no text selected")
	}
	if err := o.clipboard.WriteText(ctx, text); err != nil {
		logger.Logger.Error("copy to clipboard failed", "error", err.Error())
		o.notifier.Notify(errorToast(msgCopyFailed))
		return err
	}
	o.notifier.Notify(infoToast(msgCopied))
	o.hideAll()
	return nil
}
