package ui

import (
	"context"
	"fmt"
	"selection_assistant/models/models"
	"selection_assistant/pkg/selection"
	"strings"
)

// Event 宿主页面转发过来的一条输入，按行以 JSON 编码
type Event struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	Rects     []selection.Rect `json:"rects,omitempty"`
	Target    string           `json:"target,omitempty"`
	Selection string           `json:"selection,omitempty"`
}

func parseTarget(s string) (selection.Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "page":
		return selection.TargetPage, nil
	case "menu":
		return selection.TargetMenu, nil
	case "result":
		return selection.TargetResult, nil
	}
	return selection.TargetPage, fmt.Errorf("unknown pointer target %q", s)
}

// Apply 把事件交给选区状态机或浮动层。
// translate/explain 返回的 channel 在结果落定后关闭，其余事件返回 nil
func (o *Overlay) Apply(ctx context.Context, e Event) (<-chan struct{}, error) {
	switch e.Type {
	case "select":
		o.tracker.SelectionChanged(e.Text, e.Rects)
	case "pointerDown":
		o.tracker.PointerDown()
	case "pointerUp":
		o.tracker.PointerUp(e.Text, e.Rects)
	case "pointerMove":
		target, err := parseTarget(e.Target)
		if err != nil {
			return nil, err
		}
		o.tracker.PointerMove(target, e.Selection)
	case "hoverEnter":
		target, err := parseTarget(e.Target)
		if err != nil {
			return nil, err
		}
		o.tracker.HoverEnter(target)
	case "hoverLeave":
		o.tracker.HoverLeave()
	case "outsideClick":
		o.tracker.OutsideClick()
	case "toggleMenu":
		o.ToggleMenu()
	case "closeResult":
		o.CloseResult()
	case "hide":
		o.hideAll()
	case "copy":
		_ = o.Copy(ctx)
	case "translate":
		return o.RunAction(ctx, models.ResultTranslate), nil
	case "explain":
		return o.RunAction(ctx, models.ResultExplain), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil, nil
}
