package errors

import "net/http"

// Process exit codes by error category.
const (
	ExitFailure  = 1 // any other error
	ExitUsage    = 2 // invalid input or config
	ExitNotFound = 3 // missing image, group, view or port
	ExitSource   = 4 // image host unreachable, slow or serving garbage
	ExitStore    = 5 // cache or group store unavailable
)

type category struct {
	status int
	exit   int
}

var categories = map[Code]category{
	ErrCodeInvalidInput:    {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidViewName: {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidConfig:   {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidFormat:   {http.StatusBadRequest, ExitUsage},
	ErrCodeUnsupported:     {http.StatusBadRequest, ExitUsage},
	ErrCodeNotFound:        {http.StatusNotFound, ExitNotFound},
	ErrCodeGroupNotFound:   {http.StatusNotFound, ExitNotFound},
	ErrCodeViewNotFound:    {http.StatusNotFound, ExitNotFound},
	ErrCodePortNotFound:    {http.StatusNotFound, ExitNotFound},
	ErrCodeNetwork:         {http.StatusBadGateway, ExitSource},
	ErrCodeTimeout:         {http.StatusGatewayTimeout, ExitSource},
	ErrCodeDecode:          {http.StatusBadGateway, ExitSource},
	ErrCodeStore:           {http.StatusServiceUnavailable, ExitStore},
}

// HTTPStatus returns the response status for err's code, or 500 for
// uncoded and internal errors.
func HTTPStatus(err error) int {
	if c, ok := categories[GetCode(err)]; ok {
		return c.status
	}
	return http.StatusInternalServerError
}

// ExitCode returns the process exit code for err. A nil error exits 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if c, ok := categories[GetCode(err)]; ok {
		return c.exit
	}
	return ExitFailure
}
