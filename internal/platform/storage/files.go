package storage

// Attachment is a client-uploaded file kept with a record.
type Attachment struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	Locator   string `json:"locator"`
}

// Document is a rendered PDF stored for a record.
type Document struct {
	Locator     string `json:"locator"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload is a file received with a submission, before it is stored.
type Upload struct {
	Filename  string
	MediaType string
	Data      []byte
}
