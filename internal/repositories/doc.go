// Package repositories implements SQLite persistence for the backend's OAuth bookkeeping.
//
// Key Implementations:
//   - [TokenRepository] : one OAuth token per provider, upserted on login and refresh
//   - [StateRepository] : single-use state values guarding the OAuth callback
//
// Tables are created by the embedded migrations in the shared package.
package repositories
