// Package failure classifies the ways a recipe submission can fail.
package failure

import (
	"errors"
	"fmt"
)

// Stage names the record mutation that failed.
type Stage string

const (
	StageLoad    Stage = "load"
	StageCreate  Stage = "create"
	StageAttach  Stage = "attach"
	StagePublish Stage = "publish"
)

// CredentialError means no valid bearer credential could be obtained.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("obtaining bearer credential: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// UploadCredentialError means the backend refused to issue upload slots.
type UploadCredentialError struct {
	Target string
	Err    error
}

func (e *UploadCredentialError) Error() string {
	return fmt.Sprintf("requesting upload slot for %s: %v", e.Target, e.Err)
}

func (e *UploadCredentialError) Unwrap() error { return e.Err }

// UploadTransportError means bytes did not reach the object store.
type UploadTransportError struct {
	Target string
	Err    error
}

func (e *UploadTransportError) Error() string {
	return fmt.Sprintf("uploading %s: %v", e.Target, e.Err)
}

func (e *UploadTransportError) Unwrap() error { return e.Err }

// RecordMutationError means the backend rejected a record operation.
type RecordMutationError struct {
	Stage Stage
	Err   error
}

func (e *RecordMutationError) Error() string {
	return fmt.Sprintf("recipe %s failed: %v", e.Stage, e.Err)
}

func (e *RecordMutationError) Unwrap() error { return e.Err }

// Credential wraps err unless it already is a *CredentialError.
func Credential(err error) error {
	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return err
	}
	return &CredentialError{Err: err}
}

// IsCredential reports whether err was caused by the credential provider.
func IsCredential(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}

// MutationStage returns the failed stage of a RecordMutationError in err.
func MutationStage(err error) (Stage, bool) {
	var mutErr *RecordMutationError
	if errors.As(err, &mutErr) {
		return mutErr.Stage, true
	}
	return "", false
}
