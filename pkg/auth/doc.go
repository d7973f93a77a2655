// Package auth provides pluggable credential validation for providers.
//
// Validation uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't judge). A configurable default voter decides
// when all authenticators abstain.
package auth
