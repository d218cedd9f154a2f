// Package session persists the authenticated session: access token,
// refresh token, role, and email, stored as flat key-value pairs the same
// way the backend's web client keeps them in browser localStorage.
//
// The store holds either a complete token set or nothing. Save writes all
// four fields together, Clear removes them unconditionally, and a partial
// set found in storage (for example after an interrupted write) is cleared
// on read rather than surfaced.
//
//	repo, _ := storage.NewFileRepository(dataDir)
//	sessions := session.NewService(repo)
//
//	sessions.Save(session.Tokens{
//		AccessToken:  "...",
//		RefreshToken: "...",
//		Role:         session.RoleUser,
//		Email:        "a@b.com",
//	})
//
//	if sessions.IsAuthenticated() {
//		claims, _ := session.PeekClaims(sessions.AccessToken())
//		// route by claims.Role
//	}
//
// IsAuthenticated only checks token presence. Freshness and signature
// validation are the backend's responsibility; PeekClaims exists purely
// for presentation hints and never gates authorization.
package session
