package apperrors

import (
	"net/http"
)

// Predeclared errors for the auth and verification flows. Services return
// these directly; handlers map them to responses via HandleError.

// ErrInvalidCredentials covers unknown email and wrong password alike so the
// response does not reveal which one failed.
var ErrInvalidCredentials = New(
	CodeUnauthenticated,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrUnauthenticated is the generic missing/invalid/expired credential failure.
var ErrUnauthenticated = New(
	CodeUnauthenticated,
	"auth",
	"Not authenticated",
	http.StatusUnauthorized,
)

// ErrTokenInvalidated means the refresh token's version snapshot no longer
// matches the stored counter: a prior rotation already consumed it. Same 401
// as ErrUnauthenticated on the wire, but logged under its own code.
var ErrTokenInvalidated = New(
	CodeTokenInvalidated,
	"auth",
	"Refresh token invalidated",
	http.StatusUnauthorized,
)

// ErrEmailAlreadyExists rejects a duplicate registration.
var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

// ErrAlreadyVerified rejects verification attempts on a verified account.
var ErrAlreadyVerified = New(
	CodeAlreadyVerified,
	"verification",
	"Email already verified",
	http.StatusBadRequest,
)

// ErrNoActiveRequest means no code/expiry pair is stored for the account.
var ErrNoActiveRequest = New(
	CodeNoActiveRequest,
	"verification",
	"No active verification request",
	http.StatusBadRequest,
)

// ErrCodeExpired means the stored code's expiry has passed.
var ErrCodeExpired = New(
	CodeCodeExpired,
	"verification",
	"Code expired",
	http.StatusBadRequest,
)

// ErrInvalidCode means the submitted code does not match the stored one.
var ErrInvalidCode = New(
	CodeInvalidCode,
	"verification",
	"Invalid code",
	http.StatusBadRequest,
)

// ErrResendTooSoon enforces the server-side minimum interval between
// verification code issues.
var ErrResendTooSoon = New(
	CodeResendCooldown,
	"verification",
	"Verification code was sent recently, try again later",
	http.StatusTooManyRequests,
)

// ErrUserNotFound is returned when the referenced identity no longer exists.
var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// ErrEmailNotVerified guards functionality gated on a verified address.
var ErrEmailNotVerified = New(
	CodeForbidden,
	"auth",
	"Email not verified",
	http.StatusForbidden,
)

// ErrInsufficientRole guards role-restricted routes.
var ErrInsufficientRole = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)
