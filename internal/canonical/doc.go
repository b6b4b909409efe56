// Package canonical provides canonical JSON encoding and content-addressed
// fingerprints.
//
// Canonical JSON follows RFC 8785 for the value types used here: object keys
// sorted by UTF-16 code units, strings NFC normalized, no HTML escaping, no
// insignificant whitespace. Floats and nulls are rejected so that equal
// inputs always produce byte-identical output.
//
// Fingerprints hash canonical bytes with a domain prefix:
//
//	SHA256(domain || 0x00 || canonical)
//
// The domain carries a version suffix (e.g. "fetchxml/query/v1") so the
// algorithm can be migrated without colliding with older fingerprints.
package canonical
