package safe

import (
	"fmt"
	"reflect"

	"PSocial/logger"
	"PSocial/tools/errs"

	"go.uber.org/zap"
)

// MustNotNil panics if the given value is nil.
// Used by constructors to reject missing collaborators early.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(name string, f func()) {
	go func() {
		defer Recover(name)
		f()
	}()
}

// Recover logs a recovered panic; call it deferred.
func Recover(name string) {
	if r := recover(); r != nil {
		logger.Error("[SafeGo] panic recovered", zap.String("task", name), zap.Error(errs.ErrPanic(r)))
	}
}
