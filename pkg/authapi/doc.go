// Package authapi is the JSON client for the authentication backend.
//
// The client is stateless: one method per endpoint, each sending the
// documented request body and returning the parsed response body to the
// caller unchanged. Interpretation of outcomes (MFA hand-off, token
// persistence, attempt counting) belongs to the flow controller, not here.
//
// Non-2xx responses become pkg/errors structured errors carrying the
// server's message and any per-field error map; unreachable servers and
// unparseable bodies surface as NETWORK_ERROR with a generic message.
// On authenticated calls a 401/403 maps to SESSION_EXPIRED so callers can
// clear the local session.
//
//	client := authapi.NewClient("https://localhost:8081")
//	resp, err := client.Login(ctx, authapi.LoginRequest{
//		Email:          email,
//		Password:       password,
//		RecaptchaToken: challengeToken,
//	})
package authapi
