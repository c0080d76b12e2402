package errs

import (
	"errors"
	"fmt"
)

// ErrDuplicate 存储层在唯一约束冲突时返回
var ErrDuplicate = errors.New("duplicate record")

type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	NotAuthenticated
	PermissionDenied
	NotFound
	Conflict
)

var kindInfo = map[Kind]struct {
	code int
	msg  string
}{
	InvalidArgument:  {40000, "请求参数错误"},
	NotAuthenticated: {40100, "未登录"},
	PermissionDenied: {40101, "无权限"},
	NotFound:         {40400, "请求数据不存在"},
	Conflict:         {40900, "操作冲突"},
	Internal:         {50000, "系统内部异常"},
}

// Code 稳定的错误码，对外暴露
func (k Kind) Code() int {
	return kindInfo[k].code
}

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotAuthenticated:
		return "NotAuthenticated"
	case PermissionDenied:
		return "PermissionDenied"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	default:
		return "Internal"
	}
}

// Error 业务异常，Msg 可以直接展示给用户
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func New(kind Kind, msg string) *Error {
	if msg == "" {
		msg = kindInfo[kind].msg
	}
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap 附带内部原因；原因只用于日志，不会出现在 Msg 里
func Wrap(kind Kind, cause error, msg string) *Error {
	e := New(kind, msg)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Kind.Code(), e.Msg, e.cause)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Kind.Code(), e.Msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Code() int {
	return e.Kind.Code()
}

// KindOf 非 *Error 的错误一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Public 返回可以展示给用户的错误码与信息
func Public(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Code(), e.Msg
	}
	return Internal.Code(), kindInfo[Internal].msg
}
