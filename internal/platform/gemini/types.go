package gemini

// promptData is the data passed to the prompt template.
type promptData struct {
	SourceText string
	MaxCards   int
}

// responseSchema is the expected JSON structure of a Gemini reply.
type responseSchema struct {
	Cards []cardSchema `json:"cards"`
}

// cardSchema is a single proposed card in the API response.
type cardSchema struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Hint  string   `json:"hint,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}
