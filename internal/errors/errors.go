// Package errors provides standardized error codes for the bridge host.
//
// Error codes follow the format {domain}.{error} where:
//   - domain: The subsystem that generated the error (validation, document, access, router, server, storage)
//   - error: The specific error type within that domain
//
// The wire format only carries the human-readable message, so callers that
// need to branch on the failure should use KindOf or IsCode rather than
// parsing message text.
package errors

import (
	"errors"
	"fmt"
)

// Error codes by domain.
const (
	// Validation domain - malformed or missing command parameters
	CodeMissingParam = "validation.missing_param" // Required parameter absent
	CodeInvalidParam = "validation.invalid_param" // Parameter present but unusable

	// Document domain - failures reported against the external document store
	CodeNodeNotFound       = "document.not_found"           // Id does not resolve
	CodeCapabilityMismatch = "document.capability_mismatch" // Node lacks a required capability
	CodeStoreFailed        = "document.store_failed"        // Host API call failed

	// Access domain - guard rejections with fixed remediation text
	CodeReadOnly     = "access.read_only"     // Session is in read-only mode
	CodeOutsideScope = "access.outside_scope" // Target outside the editable scope
	CodeNameMismatch = "access.name_mismatch" // expectedName does not match
	CodeRootInstance = "access.root_instance" // Instance creation at page root with a scope set

	// Router domain
	CodeUnknownCommand = "router.unknown_command" // Command not in the table

	// Server domain - WebSocket and network errors
	CodeServerUpgradeFailed  = "server.upgrade_failed"  // WebSocket upgrade failed
	CodeServerInvalidMessage = "server.invalid_message" // Malformed or invalid message
	CodeServerRateLimited    = "server.rate_limited"    // Too many inbound messages per second

	// Storage domain - client storage persistence errors
	CodeStorageQueryFailed = "storage.query_failed" // Database query failed
	CodeStorageSaveFailed  = "storage.save_failed"  // Failed to save data

	// General domain - catch-all errors
	CodeUnknown  = "error.unknown"  // Unknown error
	CodeInternal = "error.internal" // Internal server error
)

// Fixed access-denied texts. These are user-facing and tell the human how to
// re-scope the plugin, so they are kept verbatim.
const (
	MsgReadOnlyMode                  = "Operation Denied: Figma Plugin in Read-Only Mode. Verify if user intends for changes to be made. If so, advise user to disconnect plugin, paste a link to the page/layer to be edited into Link to Selection field, then reconnect plugin."
	MsgOutsideScope                  = "Operation Denied: Node outside editable scope. Verify if user intends for changes to be made to this particular node. If so, advise user to disconnect plugin, paste a link to this page/layer into Link to Selection field, then reconnect plugin."
	MsgParentOutsideScope            = "Operation Denied: Parent outside editable scope. Verify if user intends for changes to be made to the parent node. If so, advise user to disconnect plugin, paste a link to the parent page/layer into Link to Selection field, then reconnect plugin."
	MsgCloningSourceNodeOutsideScope = "Operation Denied: Node to be cloned is outside editable scope. Verify if user intends for this node to be cloned. If so, advise user to disconnect plugin, paste a link to this page/layer into Link to Selection field, then reconnect plugin."
	MsgRootInstanceDisallowed        = "Operation Denied: Cannot create instance at root with current editable scope. Verify if user intends for the instance to be created on this page. If so, advise user to disconnect plugin, paste a link to this page into Link to Selection field, then reconnect plugin."
	MsgNameMismatch                  = "Operation Denied: expectedName does not match name of nodeID. Refresh context & recheck to ensure correct nodeID is passed in."
	MsgParentNameMismatch            = "Operation Denied: expectedParentName does not match name of parentID. Refresh context & recheck to ensure correct parentID is passed in."

	MsgMissingNodeIDs          = "Missing or Invalid nodeIds parameter"
	MsgMissingTargetNodeIDs    = "Missing targetNodeIds parameter"
	MsgMissingSourceInstanceID = "Missing sourceInstanceId parameter"
)

// Kind groups error codes into the five failure classes callers branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindCapabilityMismatch
	KindAccessDenied
	KindExternalStore
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindCapabilityMismatch:
		return "capability_mismatch"
	case KindAccessDenied:
		return "access_denied"
	case KindExternalStore:
		return "external_store"
	default:
		return "unknown"
	}
}

// CodedError wraps an error with a stable error code.
// This allows errors to carry both a code for programmatic handling
// and a message for human consumption.
type CodedError struct {
	Code    string // Stable error code (e.g., "document.not_found")
	Message string // Human-readable error message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a new CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error.
// Falls back to CodeUnknown for errors that are not CodedErrors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	return CodeUnknown
}

// GetMessage extracts a human-readable message from an error.
// If the error is a CodedError, returns its message.
// Otherwise, returns the error's Error() string.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}

// ToCodeAndMessage extracts both code and message from an error.
func ToCodeAndMessage(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}

	return CodeUnknown, err.Error()
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// KindOf classifies an error into one of the failure kinds.
func KindOf(err error) Kind {
	switch GetCode(err) {
	case CodeMissingParam, CodeInvalidParam, CodeUnknownCommand, CodeServerInvalidMessage:
		return KindValidation
	case CodeNodeNotFound:
		return KindNotFound
	case CodeCapabilityMismatch:
		return KindCapabilityMismatch
	case CodeReadOnly, CodeOutsideScope, CodeNameMismatch, CodeRootInstance:
		return KindAccessDenied
	case CodeStoreFailed, CodeStorageQueryFailed, CodeStorageSaveFailed:
		return KindExternalStore
	default:
		return KindUnknown
	}
}

// Common error constructors for frequently used error types.

// MissingParam creates a "validation.missing_param" error naming the field.
func MissingParam(field string) *CodedError {
	return New(CodeMissingParam, fmt.Sprintf("Missing %s parameter", field))
}

// Invalid creates a "validation.invalid_param" error with a free-form message.
func Invalid(message string) *CodedError {
	return New(CodeInvalidParam, message)
}

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...any) *CodedError {
	return New(CodeInvalidParam, fmt.Sprintf(format, args...))
}

// NodeNotFound creates the standard "Node not found with ID" error.
func NodeNotFound(id string) *CodedError {
	return New(CodeNodeNotFound, fmt.Sprintf("Node not found with ID: %s", id))
}

// NotFoundf creates a "document.not_found" error with a custom message.
// Several handlers use their own phrasing for the same condition.
func NotFoundf(format string, args ...any) *CodedError {
	return New(CodeNodeNotFound, fmt.Sprintf(format, args...))
}

// Unsupported creates a "document.capability_mismatch" error.
func Unsupported(format string, args ...any) *CodedError {
	return New(CodeCapabilityMismatch, fmt.Sprintf(format, args...))
}

// StoreFailed wraps a host API failure with context, producing
// "<context>: <cause message>" as the user-facing text.
func StoreFailed(context string, cause error) *CodedError {
	return Wrap(CodeStoreFailed, fmt.Sprintf("%s: %s", context, GetMessage(cause)), cause)
}

// ReadOnly creates the read-only mode denial.
func ReadOnly() *CodedError {
	return New(CodeReadOnly, MsgReadOnlyMode)
}

// OutsideScope creates a scope denial with the given fixed text.
func OutsideScope(message string) *CodedError {
	return New(CodeOutsideScope, message)
}

// NameMismatch creates a name verification denial with the given fixed text.
func NameMismatch(message string) *CodedError {
	return New(CodeNameMismatch, message)
}

// RootInstanceDisallowed creates the denial for instance creation at root.
func RootInstanceDisallowed() *CodedError {
	return New(CodeRootInstance, MsgRootInstanceDisallowed)
}

// UnknownCommand creates a "router.unknown_command" error.
func UnknownCommand(command string) *CodedError {
	return New(CodeUnknownCommand, fmt.Sprintf("Unknown command: %s", command))
}

// InvalidMessage creates a "server.invalid_message" error.
func InvalidMessage(reason string) *CodedError {
	return New(CodeServerInvalidMessage, reason)
}

// Internal creates an "error.internal" error.
func Internal(message string, cause error) *CodedError {
	return Wrap(CodeInternal, message, cause)
}
