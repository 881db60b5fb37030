package common

// AppError is an error that knows how it should be rendered over HTTP.
// Message is what the client sees; Err stays server side.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any
	Err        error
}

func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err == nil:
		return e.Code + ": " + e.Message
	default:
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
