package httputil

// Machine-readable error codes returned alongside error messages.
// Clients should branch on these rather than on message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidOrdering    = "INVALID_ORDERING"

	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"

	CodeInvalidVerificationCode = "INVALID_VERIFICATION_CODE"
	CodeAlreadyVerified         = "ALREADY_VERIFIED"
	CodeInvalidResetCode        = "INVALID_RESET_CODE"
	CodeInvalidInviteCode       = "INVALID_INVITE_CODE"
	CodeRefreshTokenRequired    = "REFRESH_TOKEN_REQUIRED"

	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeCooldownActive  = "COOLDOWN_ACTIVE"
	CodeInternalError   = "INTERNAL_ERROR"
)
