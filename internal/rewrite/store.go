package rewrite

// Store supplies the URLs of the site whose HTML is being rewritten.
type Store interface {
	// BaseURL is stripped from image URLs to find files under the public
	// root.
	BaseURL() string
	// MediaURL is the public URL of the media directory.
	MediaURL() string
}

// StaticStore is a Store with fixed URLs.
type StaticStore struct {
	Base  string
	Media string
}

func (s StaticStore) BaseURL() string  { return s.Base }
func (s StaticStore) MediaURL() string { return s.Media }
