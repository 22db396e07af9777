package medium

// SearchResponse is the /search/articles answer: a list of article IDs.
type SearchResponse struct {
	Query    string   `json:"query"`
	Articles []string `json:"articles"`
}

// ArticleInfo is the /article/{id} answer.
type ArticleInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"published_at"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
	Lang        string   `json:"lang"`
}

// ContentResponse covers /article/{id}/markdown and /article/{id}/html.
type ContentResponse struct {
	ID       string `json:"id"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}
