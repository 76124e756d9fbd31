package jwtx

import "errors"

var (
	// ErrMalformed indicates the compact serialization could not be parsed.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrSignature indicates the signature did not verify against the key.
	ErrSignature = errors.New("jwtx: signature verification failed")

	// ErrAlgorithm indicates an unexpected signing algorithm in the header.
	ErrAlgorithm = errors.New("jwtx: unexpected signing algorithm")

	// ErrExpired indicates the token's exp claim is in the past.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrNotYetValid indicates the token's nbf claim is in the future.
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	// ErrIssuer indicates the iss claim did not match the expected issuer.
	ErrIssuer = errors.New("jwtx: issuer mismatch")
)
