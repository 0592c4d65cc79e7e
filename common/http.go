package common

const (
	ResponseCodeOK    = 0
	ResponseCodeError = -1
)

// HttpResponse is the envelope of every API response.
type HttpResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    *T     `json:"data,omitempty"`
}

func OK[T any](data T) HttpResponse[T] {
	return HttpResponse[T]{Code: ResponseCodeOK, Message: "OK", Data: &data}
}

func Fail(msg string) HttpResponse[any] {
	return HttpResponse[any]{Code: ResponseCodeError, Message: msg}
}
