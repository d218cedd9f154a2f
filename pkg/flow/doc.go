// Package flow orchestrates the client-side login state machine.
//
// A Controller moves through three phases: CREDENTIALS, where email and
// password are validated locally and submitted; MFA_CHALLENGE, entered when
// the backend asks for a one-time code; and AUTHENTICATED, reached when
// tokens are issued and persisted. MFA rejection keeps the pending email
// and MFA session token so the user retries the code, not the credentials.
//
// The controller consumes the attempt throttle before any network call,
// counts server rejections and network errors as failed attempts, and never
// counts local validation failures. All UI effects go through the Presenter
// callback interface.
package flow
