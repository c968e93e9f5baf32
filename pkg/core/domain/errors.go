package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotAuthenticated = errors.New("not signed in")
	ErrAdminUndeletable = errors.New("admin users cannot be deleted")
	ErrNoIDs            = errors.New("no ids selected")
	ErrDuplicate        = errors.New("already exists")
)

// HTTPError is a non-2xx response from the API
type HTTPError struct {
	Status  int
	Body    []byte
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 response
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}

// NetworkError is a transport failure: the request never produced a response
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError is a client-side form check failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every failing field of a form
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message for a field, or "" when it passed
func (e ValidationErrors) Field(name string) string {
	for _, v := range e {
		if v.Field == name {
			return v.Message
		}
	}
	return ""
}

func (e ValidationErrors) As(target any) bool {
	if t, ok := target.(**ValidationError); ok && len(e) > 0 {
		*t = e[0]
		return true
	}
	return false
}

// BulkError reports a bulk action where some per-id calls failed.
// Ids that succeeded remotely are not rolled back.
type BulkError struct {
	Op        string
	Failed    map[int64]error
	Succeeded []int64
	First     error
}

func (e *BulkError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "id " + strconv.FormatInt(id, 10) + ": " + e.Failed[id].Error()
	}
	return fmt.Sprintf("%s: %d of %d failed: %s", e.Op, len(ids), len(ids)+len(e.Succeeded), strings.Join(parts, "; "))
}

func (e *BulkError) Unwrap() error {
	return e.First
}

// FailedIDs returns the failing ids in ascending order
func (e *BulkError) FailedIDs() []int64 {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
