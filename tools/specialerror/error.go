package specialerror

import (
	"context"
	"sync"

	"PSocial/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handler classifies a driver or library error; ok=false means "not mine".
type Handler func(err error) (errs.CodeError, bool)

var (
	mu       sync.RWMutex
	handlers []Handler
)

func init() {
	_ = AddErrHandler(mongoHandler)
	_ = AddErrHandler(contextHandler)
}

func AddErrHandler(h Handler) error {
	if h == nil {
		return errs.New("nil handler")
	}
	mu.Lock()
	defer mu.Unlock()
	handlers = append(handlers, h)
	return nil
}

// Classify returns err unchanged if it already carries a CodeError, otherwise
// the first handler's classification wrapped around err.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errs.AsCode(err); ok {
		return err
	}
	mu.RLock()
	hs := append([]Handler(nil), handlers...)
	mu.RUnlock()
	for _, h := range hs {
		if code, ok := h(err); ok {
			return errors.Wrap(code, err.Error())
		}
	}
	return err
}

func mongoHandler(err error) (errs.CodeError, bool) {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return errs.ErrDuplicateKey, true
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.ErrRecordNotFound, true
	}
	return errs.CodeError{}, false
}

func contextHandler(err error) (errs.CodeError, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.ErrInternalServer, true
	}
	return errs.CodeError{}, false
}
