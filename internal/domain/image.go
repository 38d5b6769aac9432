package domain

import "renderstudio/internal/imagedata"

// MaxReferenceImages caps the number of reference images in a session.
const MaxReferenceImages = 5

// ReferenceImage is an uploaded (or promoted) input image. Order in the store
// is the order sent to the generation API.
type ReferenceImage struct {
	ID   string            `json:"id"`
	Data imagedata.Payload `json:"data"`
}

// Export is a generated result prepared for saving to disk.
type Export struct {
	Filename string
	MIME     string
	Data     []byte
}
