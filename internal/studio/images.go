package studio

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"renderstudio/internal/domain"
	"renderstudio/internal/imagedata"
)

// ImageStore is the ordered set of reference images for one session. It is
// not safe for concurrent use; Session serializes access.
type ImageStore struct {
	images []domain.ReferenceImage
	newID  func() (string, error)
}

func NewImageStore() *ImageStore {
	return &ImageStore{newID: newImageID}
}

func newImageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Add decodes raw file bytes into a payload and appends it.
func (s *ImageStore) Add(ctx context.Context, data []byte) (domain.ReferenceImage, error) {
	if len(s.images) >= domain.MaxReferenceImages {
		return domain.ReferenceImage{}, domain.ErrCapacityExceeded
	}
	payload, err := encodeUpload(ctx, data)
	if err != nil {
		return domain.ReferenceImage{}, err
	}
	return s.append(payload)
}

func (s *ImageStore) append(payload imagedata.Payload) (domain.ReferenceImage, error) {
	if len(s.images) >= domain.MaxReferenceImages {
		return domain.ReferenceImage{}, domain.ErrCapacityExceeded
	}
	id, err := s.newID()
	if err != nil {
		return domain.ReferenceImage{}, fmt.Errorf("image id: %w", err)
	}
	img := domain.ReferenceImage{ID: id, Data: payload}
	s.images = append(s.images, img)
	return img, nil
}

// encodeUpload accepts anything sniffed as image/* or readable by the
// registered decoders; the decoder's format names the MIME type when sniffing
// does not.
func encodeUpload(ctx context.Context, data []byte) (imagedata.Payload, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	declared := ""
	if info, err := imagedata.Inspect(data); err == nil {
		declared = "image/" + info.Format
	}
	payload, err := imagedata.Encode(data, declared)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFileDecode, err)
	}
	return payload, nil
}

// Remove drops the image with the given id. Unknown ids are ignored.
func (s *ImageStore) Remove(id string) bool {
	for i, img := range s.images {
		if img.ID == id {
			s.images = append(s.images[:i], s.images[i+1:]...)
			return true
		}
	}
	return false
}

func (s *ImageStore) Clear() {
	s.images = nil
}

// ReplaceWith empties the store and inserts payload as its only image.
func (s *ImageStore) ReplaceWith(payload imagedata.Payload) (domain.ReferenceImage, error) {
	s.Clear()
	return s.append(payload)
}

// List returns a copy in insertion order.
func (s *ImageStore) List() []domain.ReferenceImage {
	out := make([]domain.ReferenceImage, len(s.images))
	copy(out, s.images)
	return out
}

func (s *ImageStore) Len() int {
	return len(s.images)
}

// Payloads returns the image data in the order it is sent for generation.
func (s *ImageStore) Payloads() []imagedata.Payload {
	out := make([]imagedata.Payload, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img.Data)
	}
	return out
}
