package selection

import "time"

type Timer interface {
	Stop() bool
}

// Clock 只用于调度隐藏计时器，测试里替换成手动推进的实现
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
