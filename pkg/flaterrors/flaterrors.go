// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package flaterrors joins errors into a single, flat error value.
//
// Unlike errors.Join, nested joined errors are flattened, and the message is
// rendered on one line with the most recently added context first:
//
//	flaterrors.Join(err, errReadingConfig).Error() == "reading config: <err>"
package flaterrors

import "strings"

type joinError struct {
	errs []error
}

// Join returns an error wrapping every non-nil error in errs.
// It returns nil when all errors are nil.
func Join(errs ...error) error {
	flat := make([]error, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}

		if j, ok := err.(*joinError); ok {
			flat = append(flat, j.errs...)
			continue
		}

		flat = append(flat, err)
	}

	if len(flat) == 0 {
		return nil
	}

	return &joinError{errs: flat}
}

// Error renders the wrapped errors from last to first, separated by ": ".
func (e *joinError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for i := len(e.errs) - 1; i >= 0; i-- {
		msgs = append(msgs, e.errs[i].Error())
	}

	return strings.Join(msgs, ": ")
}

// Unwrap exposes the wrapped errors to errors.Is and errors.As.
func (e *joinError) Unwrap() []error {
	return e.errs
}
