package adminsession

import "errors"

var (
	// ErrLoginFailed is returned by [Manager.Login] when the credential
	// exchange fails or the remote response is unusable. The wrapped chain
	// carries the user-facing message when the server provided one.
	ErrLoginFailed = errors.New("login failed")
	// ErrNoAccessToken is returned when a login response carried no access
	// token. Always wrapped in [ErrLoginFailed].
	ErrNoAccessToken = errors.New("login response did not include an access token")
	// ErrAlreadyInitialized is returned by [Manager.Initialize] on any call
	// after the first. The session state is left untouched.
	ErrAlreadyInitialized = errors.New("session already initialized")
	// ErrNotInitialized is returned by operations that require a completed
	// [Manager.Initialize].
	ErrNotInitialized = errors.New("session not initialized")
	// ErrClosed is returned once [Manager.Close] has been called.
	ErrClosed = errors.New("session manager closed")
	// ErrRemoteLogout marks a server-side logout failure. It is logged, never
	// returned: local teardown always proceeds.
	ErrRemoteLogout = errors.New("remote logout failed")
)

// userMessenger is implemented by transport errors that carry a message safe
// to show to the person signing in (see rest.APIError).
type userMessenger interface {
	UserMessage() string
}

const genericLoginMessage = "unable to sign in, please try again"

// UserMessage extracts a user-facing message from a [Manager.Login] error.
// It returns the server-provided message when the transport supplied one and
// a generic fallback otherwise.
func UserMessage(err error) string {
	var um userMessenger
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return genericLoginMessage
}
