package domain

import "fmt"

// FetchError is a network or HTTP failure for one category.
type FetchError struct {
	Category string
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Category, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is a malformed listing element. Index is the element's
// position among the page's listing candidates.
type ParseError struct {
	Category string
	Index    int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s listing #%d: %v", e.Category, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
