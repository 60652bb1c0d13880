package models

// ImageRef pairs the public link of an uploaded asset with the blob id
// needed to delete it later.
type ImageRef struct {
	URL    string `json:"url"`
	BlobID string `json:"blobId"`
}

// ImageSet keeps links and blob ids index-aligned. Records store it as a
// single list so the two views can never drift apart.
type ImageSet []ImageRef

func (s ImageSet) URLs() []string {
	out := make([]string, len(s))
	for i, ref := range s {
		out[i] = ref.URL
	}
	return out
}

func (s ImageSet) BlobIDs() []string {
	out := make([]string, len(s))
	for i, ref := range s {
		out[i] = ref.BlobID
	}
	return out
}

// First returns the first reference, or the zero value when the set is empty.
func (s ImageSet) First() ImageRef {
	if len(s) == 0 {
		return ImageRef{}
	}
	return s[0]
}
