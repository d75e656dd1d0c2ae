package domain

// UnprocessableEntityResponse is returned with HTTP 422.
type UnprocessableEntityResponse struct {
	Detail       string `json:"detail"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewUnprocessableEntity(detail string) UnprocessableEntityResponse {
	return UnprocessableEntityResponse{Detail: detail, ErrorCode: 422, ErrorMessage: "Unprocessable Entity"}
}

// TooManyRequestsResponse is returned with HTTP 429.
type TooManyRequestsResponse struct {
	Detail       string `json:"detail"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewTooManyRequests(detail string) TooManyRequestsResponse {
	return TooManyRequestsResponse{Detail: detail, ErrorCode: 429, ErrorMessage: "Too Many Requests"}
}
