package models

import "net/http"

const (
	StatusOK   = "ok"
	StatusFail = "fail"

	CodeOK   = 20000
	CodeFail = 50000

	MsgOK = "请求成功"
)

// Envelope wraps every JSON API response.
type Envelope struct {
	Data      any    `json:"data"`
	Total     *int64 `json:"total,omitempty"`
	Status    string `json:"status"`
	Msg       string `json:"msg"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func Success(data any) Envelope {
	return Envelope{Data: data, Status: StatusOK, Msg: MsgOK, Code: CodeOK}
}

func SuccessList(total int64, data any) Envelope {
	env := Success(data)
	env.Total = &total
	return env
}

func Fail(data any, msg string, code int) Envelope {
	if code == 0 {
		code = CodeFail
	}
	return Envelope{Data: data, Status: StatusFail, Msg: msg, Code: code}
}

// StatusCode pairs an HTTP status with an envelope code and default message.
type StatusCode struct {
	HTTP int
	Code int
	Msg  string
}

var (
	SCodeOK              = StatusCode{http.StatusOK, CodeOK, MsgOK}
	SCodeNotFound        = StatusCode{http.StatusNotFound, 20001, "resource not found"}
	SCodeBadRequest      = StatusCode{http.StatusBadRequest, 20002, "invalid request"}
	SCodeUnauthorized    = StatusCode{http.StatusUnauthorized, 20003, "authentication required"}
	SCodeForbidden       = StatusCode{http.StatusForbidden, 20004, "permission denied"}
	SCodeConflict        = StatusCode{http.StatusConflict, 20005, "resource already exists"}
	SCodeTooManyRequests = StatusCode{http.StatusTooManyRequests, 20006, "too many requests"}
	SCodeInternal        = StatusCode{http.StatusInternalServerError, CodeFail, "internal server error"}
	SCodeUnavailable     = StatusCode{http.StatusServiceUnavailable, 50001, "service unavailable"}
)

// Envelope builds a response for the status. An empty msg uses the default.
func (s StatusCode) Envelope(data any, msg string) Envelope {
	if msg == "" {
		msg = s.Msg
	}
	if s.HTTP < http.StatusBadRequest {
		env := Success(data)
		env.Code = s.Code
		env.Msg = msg
		return env
	}
	return Fail(data, msg, s.Code)
}
