// Package piiguard protects personally identifiable employee data at rest:
// field-level authenticated encryption of attributes such as last name, INN,
// SNILS and KIG, blind indexes for equality search without decryption, and
// authenticated encryption of uploaded sensitive documents (passport scans,
// patents, KIG images).
//
// Values are encrypted in the application before they reach the database.
// The storage layer calls this package as the last step of a write and the
// first step of a read; it keeps ownership of transactions, validation and
// all non-sensitive columns.
//
// # Encryption
//
// Fields use AES-256-GCM with a fresh 12-byte random nonce per call. The
// associated data is "entity:field", so a ciphertext moved to another column
// or entity fails authentication. Documents use AES-256-GCM (or
// ChaCha20-Poly1305) with the document type as associated data. Every
// decryption either returns the exact plaintext or an error.
//
// # Basic Usage
//
//	ring, err := piiguard.ParseKeyRing(`{"v1":"<base64 32 bytes>"}`, "v1")
//	if err != nil {
//	    log.Fatal(err) // configuration errors are fatal
//	}
//	hasher, _ := piiguard.NewHasher(pepper)
//
//	p, err := piiguard.NewProtector(
//	    piiguard.WithFieldEncryption(true),
//	    piiguard.WithFieldCodec(piiguard.NewFieldCodec(ring)),
//	    piiguard.WithHasher(hasher),
//	)
//
//	kig := "AA1234567"
//	sealed, err := p.ProtectField(piiguard.EntityEmployee, piiguard.FieldKIG, &kig)
//	// sealed.Ciphertext -> kig_enc, sealed.KeyVersion -> kig_key_version,
//	// sealed.Hash -> kig_hash, sealed.LegacyPlaintext -> kig
//
// # Searchable Encryption
//
// Searchable fields get an HMAC-SHA256 blind index under a secret pepper that
// is independent of the encryption keys:
//
//	cond, _ := p.SearchCondition("kig", piiguard.EntityEmployee, piiguard.FieldKIG, "aa 123-4567", 1)
//	// cond.SQL == "kig_hash = $1"
//
// Values pass through the field's Normalizer before hashing. Use the same
// normalizer on write and search.
//
// # Key Rotation
//
// A KeyRing holds every key version ever used. Rotation deploys a new active
// version; old versions stay so existing ciphertext remains readable:
//
//	ring, _ := piiguard.ParseKeyRing(`{"v1":"...","v2":"..."}`, "v2")
//	if codec.NeedsRotation(stored) {
//	    stored, err = codec.RotateField("employee", "inn", stored)
//	}
//
// # Legacy Plaintext
//
// During migration the historical plaintext column can still be written. The
// PlaintextSwitch is read on every write, so flipping it to LegacyEncryptOnly
// takes effect immediately and later writes store NULL in that column.
//
// # NULL Handling
//
// NULL values are preserved: ProtectField(nil) returns an all-NULL
// SealedField and RevealField of an all-NULL SealedField returns nil, nil.
package piiguard
