package wordpress

// postRequest is the wp-json/wp/v2/posts creation payload.
type postRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Status     string   `json:"status"`
	Categories []int64  `json:"categories,omitempty"`
	Tags       []int64  `json:"tags,omitempty"`
	Format     string   `json:"format"`
	Meta       postMeta `json:"meta"`
}

type postMeta struct {
	SourceURL    string `json:"source_url"`
	SourceAuthor string `json:"source_author"`
}

type postResponse struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// term covers both categories and tags: wp-json/wp/v2/{categories,tags}.
type term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
