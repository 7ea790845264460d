package reasoncodes

type ReasonCode string

const (
	ErrValidation        ReasonCode = "ValidationError"
	ErrAlreadyExists     ReasonCode = "AlreadyExistsError"
	ErrNotFound          ReasonCode = "NotFoundError"
	ErrNetwork           ReasonCode = "NetworkError"
	ErrInsufficientFunds ReasonCode = "InsufficientFundsError"
	ErrUnauthorized      ReasonCode = "UnauthorizedError"
	ErrUnknown           ReasonCode = "UnknownError"
)
