package simpleadmin

// CreatePostRequest contains parameters for creating a post
type CreatePostRequest struct {
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	CoverImage  string   `json:"cover_image"`
	Images      []string `json:"images"`
	Published   bool     `json:"published"`
}

// UploadMediaRequest contains parameters for uploading a media file
type UploadMediaRequest struct {
	// Key is relative to the media prefix (e.g. "a.png")
	Key      string
	MimeType string
}
