package service

// Key layout in the revocation/session store. Everything is keyed by an
// opaque identifier so unrelated sessions never contend.
const (
	refreshKeyPrefix      = "refresh:"          // refresh fingerprint -> session id
	sessionKeyPrefix      = "session:"          // session id -> session record JSON
	userSessionsKeyPrefix = "user_sessions:"    // user id -> set of session ids
	blacklistKeyPrefix    = "blacklist:"        // token fingerprint -> placeholder
	attemptsKeyPrefix     = "lockout:attempts:" // account key -> failure counter
	holdKeyPrefix         = "lockout:hold:"     // account key -> lockout flag
)

func refreshKey(fingerprint string) string { return refreshKeyPrefix + fingerprint }
func sessionKey(sessionID string) string   { return sessionKeyPrefix + sessionID }
func userSessionsKey(userID string) string { return userSessionsKeyPrefix + userID }
func blacklistKey(fingerprint string) string {
	return blacklistKeyPrefix + fingerprint
}
func attemptsKey(accountKey string) string { return attemptsKeyPrefix + accountKey }
func holdKey(accountKey string) string     { return holdKeyPrefix + accountKey }
