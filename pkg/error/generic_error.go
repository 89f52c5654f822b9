package error

// GenericError is implemented by every typed error surfaced to chat or HTTP
// callers. ErrCode is a stable machine code, StatusCode the HTTP mapping.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
