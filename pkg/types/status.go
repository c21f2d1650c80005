package types

import "fmt"

// Status is a native store status code. Backends return it as an error;
// StatusSuccess is never returned as an error.
type Status uint32

const (
	StatusSuccess             Status = 0
	StatusFileNotFound        Status = 2
	StatusAccessDenied        Status = 5
	StatusInvalidHandle       Status = 6
	StatusBadNetPath          Status = 53
	StatusInvalidParameter    Status = 87
	StatusAlreadyExists       Status = 183
	StatusMoreData            Status = 234
	StatusNoMoreItems         Status = 259
	StatusKeyDeleted          Status = 1018
	StatusKeyHasChildren      Status = 1020
	StatusChildMustBeVolatile Status = 1021
)

var statusText = map[Status]string{
	StatusSuccess:             "success",
	StatusFileNotFound:        "the system cannot find the file specified",
	StatusAccessDenied:        "access is denied",
	StatusInvalidHandle:       "the handle is invalid",
	StatusBadNetPath:          "the network path was not found",
	StatusInvalidParameter:    "the parameter is incorrect",
	StatusAlreadyExists:       "cannot create a file when that file already exists",
	StatusMoreData:            "more data is available",
	StatusNoMoreItems:         "no more data is available",
	StatusKeyDeleted:          "illegal operation attempted on a registry key that has been marked for deletion",
	StatusKeyHasChildren:      "cannot create a symbolic link in a registry key that already has subkeys or values",
	StatusChildMustBeVolatile: "cannot create a stable subkey under a volatile parent key",
}

func (s Status) Error() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("status %d", uint32(s))
}
