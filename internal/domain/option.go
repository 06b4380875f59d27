package domain

// Option is an unpersisted candidate returned by option generation.
type Option struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Focus       string `json:"focus"`
	Content     string `json:"content"`
	WordCount   int    `json:"word_count"`
	Explanation string `json:"explanation,omitempty"`
}

func FindOption(opts []Option, id int) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
