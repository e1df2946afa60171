package collector

import "context"

// Funcs adapts plain functions to the Collector and Stopper interfaces.
// DoneFunc may be nil, in which case the run never stops early.
type Funcs[T, Y any] struct {
	Once

	FetchFunc   func(ctx context.Context) (Page[T], error)
	ProcessFunc func(page Page[T])
	DoneFunc    func() bool
	FinishFunc  func() Y
}

// Fetch calls FetchFunc.
func (f *Funcs[T, Y]) Fetch(ctx context.Context) (Page[T], error) {
	return f.FetchFunc(ctx)
}

// Process calls ProcessFunc.
func (f *Funcs[T, Y]) Process(page Page[T]) {
	f.ProcessFunc(page)
}

// Done calls DoneFunc, or reports false when it is unset.
func (f *Funcs[T, Y]) Done() bool {
	if f.DoneFunc == nil {
		return false
	}
	return f.DoneFunc()
}

// Finish calls FinishFunc.
func (f *Funcs[T, Y]) Finish() Y {
	return f.FinishFunc()
}
