package services

const (
	AuthUserDisabled          = "auth/user-disabled"
	AuthUserNotFound          = "auth/user-not-found"
	AuthWrongPassword         = "auth/wrong-password"
	AuthEmailAlreadyInUse     = "auth/email-already-in-use"
	AuthWeakPassword          = "auth/weak-password"
	AuthInvalidEmail          = "auth/invalid-email"
	AuthTooManyRequests       = "auth/too-many-requests"
	AuthNetworkRequestFailed  = "auth/network-request-failed"
	AuthPopupClosedByUser     = "auth/popup-closed-by-user"
	AuthCancelledPopupRequest = "auth/cancelled-popup-request"
	AuthIDTokenExpired        = "auth/id-token-expired"
	AuthInvalidIDToken        = "auth/invalid-id-token"
)

const unexpectedAuthError = "An unexpected error occurred."

var authErrorMessages = map[string]string{
	AuthUserDisabled:          "This account has been disabled.",
	AuthUserNotFound:          "No account found with this email address.",
	AuthWrongPassword:         "Incorrect password.",
	AuthEmailAlreadyInUse:     "An account with this email already exists.",
	AuthWeakPassword:          "Password should be at least 6 characters.",
	AuthInvalidEmail:          "Invalid email address.",
	AuthTooManyRequests:       "Too many failed attempts. Please try again later.",
	AuthNetworkRequestFailed:  "Network error. Please check your connection.",
	AuthPopupClosedByUser:     "Sign-in popup was closed before completion.",
	AuthCancelledPopupRequest: "Only one popup request is allowed at a time.",
	AuthIDTokenExpired:        "Your session has expired. Please sign in again.",
	AuthInvalidIDToken:        "Your sign-in could not be verified. Please sign in again.",
}

// AuthErrorMessage maps an identity provider error code to a user-facing
// message.
func AuthErrorMessage(code string) string {
	if msg, ok := authErrorMessages[code]; ok {
		return msg
	}
	return unexpectedAuthError
}

// NewAuthError builds the UnauthorizedError for a provider code.
func NewAuthError(code string) *UnauthorizedError {
	return &UnauthorizedError{Code: code, Message: AuthErrorMessage(code)}
}
