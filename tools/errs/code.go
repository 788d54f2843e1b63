package errs

import (
	"fmt"
	"net/http"
)

const (
	ServerInternalError = 500

	ArgsError           = 1001 // 参数错误
	NoPermissionError   = 1002
	RecordNotFoundError = 1004
	DuplicateKeyError   = 1005
	TooManyRequestError = 1006

	TokenInvalidError = 1501
	TokenExpiredError = 1502
	TokenMissingError = 1503
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrNoPermission   = NewCodeError(NoPermissionError, "NoPermissionError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")
	ErrTooManyRequest = NewCodeError(TooManyRequestError, "TooManyRequestError")

	ErrTokenInvalid = NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrTokenExpired = NewCodeError(TokenExpiredError, "TokenExpiredError")
	ErrTokenMissing = NewCodeError(TokenMissingError, "TokenMissingError")
)

func init() {
	_ = DefaultCodeRelation.Add(TokenInvalidError, TokenExpiredError)
	_ = DefaultCodeRelation.Add(TokenInvalidError, TokenMissingError)
}

// HTTPStatus maps an error chain to the status code a REST caller sees.
func HTTPStatus(err error) int {
	c, ok := AsCode(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case DefaultCodeRelation.Is(ArgsError, c.Code), c.Code == DuplicateKeyError:
		return http.StatusBadRequest
	case c.Code == NoPermissionError:
		return http.StatusForbidden
	case c.Code == RecordNotFoundError:
		return http.StatusNotFound
	case c.Code == TooManyRequestError:
		return http.StatusTooManyRequests
	case DefaultCodeRelation.Is(TokenInvalidError, c.Code):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to clients; internal errors collapse
// to a generic message.
func PublicMessage(err error) string {
	c, ok := AsCode(err)
	if !ok || c.Code == ServerInternalError {
		return "Internal server error"
	}
	if c.Detail != "" {
		return c.Detail
	}
	return c.Msg
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
