// Package catalog stores rendered queries by name in SQLite.
//
// Each saved query keeps its rendered FetchXML and the fingerprint of the
// query state that produced it, so identical queries saved under different
// names can be found again.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Rows are ordered by seq, a per-database counter bumped on every save.
package catalog
