// Package reviews implements a small game review site: accounts, articles,
// user reviews and the cookie session lifecycle that ties them together.
//
// Session lifecycle:
//   - A session token is an HS256 JWT carrying the user id. It has no expiry;
//     liveness is decided by comparing the presented token with the value
//     stored on the user record (User.SessionToken).
//   - Login and registration issue a fresh token and overwrite the stored one,
//     so every user has at most one live session. The last writer wins.
//   - Logout clears the stored token. Previously issued tokens still verify
//     cryptographically but fail the liveness check.
//
// Request resolution:
//   - The auth middleware never rejects a request. It resolves the cookie to a
//     SessionState, either Authenticated or Anonymous, and handlers decide
//     whether a user is required.
package reviews
