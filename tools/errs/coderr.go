package errs

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var DefaultCodeRelation = newCodeRelation()

type CodeErrorI interface {
	ECode() int
	EMsg() string
	DDetail() string
	WithDetail(detail string) CodeError
	error
}

func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e CodeError) ECode() int      { return e.Code }
func (e CodeError) EMsg() string    { return e.Msg }
func (e CodeError) DDetail() string { return e.Detail }

func (e CodeError) WithDetail(detail string) CodeError {
	var d string
	if e.Detail == "" {
		d = detail
	} else {
		d = e.Detail + ", " + detail
	}
	return CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

// Wrap attaches a stack trace.
func (e CodeError) Wrap() error {
	return errors.WithStack(e)
}

func (e CodeError) WrapMsg(msg string, kv ...any) error {
	if msg != "" || len(kv) > 0 {
		e = e.WithDetail(toString(msg, kv))
	}
	return errors.WithStack(e)
}

// Is matches by code (or a registered child code), so errors.Is(err, ErrArgs)
// holds for any detail.
func (e CodeError) Is(target error) bool {
	var codeErr CodeError
	if !errors.As(target, &codeErr) {
		return false
	}
	if e.Code == codeErr.Code {
		return true
	}
	return DefaultCodeRelation.Is(codeErr.Code, e.Code)
}

const initialCapacity = 3

func (e CodeError) Error() string {
	v := make([]string, 0, initialCapacity)
	v = append(v, strconv.Itoa(e.Code), e.Msg)

	if e.Detail != "" {
		v = append(v, e.Detail)
	}

	return strings.Join(v, " ")
}

// AsCode returns the first CodeError in err's chain.
func AsCode(err error) (CodeError, bool) {
	var codeErr CodeError
	if err == nil {
		return codeErr, false
	}
	ok := errors.As(err, &codeErr)
	return codeErr, ok
}

func Unwrap(err error) error {
	return errors.Cause(err)
}

func New(msg string, kv ...any) error {
	return errors.New(toString(msg, kv))
}

func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, toString(msg, kv))
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(anyToString(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(anyToString(kv[i+1]))
		} else {
			sb.WriteString("MISSING")
		}
	}
	return sb.String()
}

type CodeRelation interface {
	Add(codes ...int) error
	Is(parent, child int) bool
}

func newCodeRelation() CodeRelation {
	return &codeRelation{m: make(map[int]map[int]struct{})}
}

type codeRelation struct {
	m map[int]map[int]struct{}
}

const minimumCodesLength = 2

func (r *codeRelation) Add(codes ...int) error {
	if len(codes) < minimumCodesLength {
		return New("codes length must be greater than 2", "codes", codes)
	}
	for i := 1; i < len(codes); i++ {
		parent := codes[i-1]
		s, ok := r.m[parent]
		if !ok {
			s = make(map[int]struct{})
			r.m[parent] = s
		}
		for _, code := range codes[i:] {
			s[code] = struct{}{}
		}
	}
	return nil
}

func (r *codeRelation) Is(parent, child int) bool {
	if parent == child {
		return true
	}
	s, ok := r.m[parent]
	if !ok {
		return false
	}
	_, ok = s[child]
	return ok
}
