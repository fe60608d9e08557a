package mixer

import "image"

// Effect splits a refresh of rect into a sequence of partial refreshes.
type Effect interface {
	Name() string
	Process(rect image.Rectangle) (<-chan image.Rectangle, error)
}
