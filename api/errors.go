package api

import "fmt"

// InputError rejects a request outright: unsupported language, empty
// source, or a parse tree whose root is an error node. No partial results
// accompany it.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("cflow: invalid input: %s", e.Reason)
}

// ErrUnsupportedLanguage builds the InputError for an unregistered
// language.
func ErrUnsupportedLanguage(language Language) error {
	return &InputError{Reason: fmt.Sprintf("unsupported language %q", language)}
}
