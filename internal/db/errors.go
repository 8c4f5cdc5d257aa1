package db

import "errors"

// ErrNotFound is returned by repositories when a document does not exist.
// Services translate it into their own domain errors.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned when a create collides with an existing
// document, e.g. a slug reservation that lost the race.
var ErrAlreadyExists = errors.New("document already exists")
