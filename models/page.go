package models

// Page is a list response. Backends answer either with a bare array or with
// this envelope; both are normalized into a Page.
type Page[T any] struct {
	Results  []T    `json:"results"`
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
