// Package session decides whether an actor holding a checkout is still
// active. Record.IsCheckedOut consults a probe before treating a foreign
// checkout as a conflict, so abandoned checkouts stop blocking edits once
// the holder's session is gone.
//
// Two probes are provided: SQLProbe counts rows in a session table, and
// RedisProbe checks a per-actor key with a TTL.
package session
