package course

// Course is the ordered list of chapters of the learning program.
// An empty Course is what every failed load returns.
type Course struct {
	Chapters []Chapter `json:"chapters" yaml:"chapters" cbor:"1,keyasint" validate:"required,min=1,dive"`
}

// Chapter is a titled unit of theory with its quiz. Chapters are identified
// by their position in Course.Chapters.
type Chapter struct {
	Title     string     `json:"title" yaml:"title" cbor:"1,keyasint" validate:"required"`
	Content   string     `json:"content" yaml:"content" cbor:"2,keyasint"`
	Questions []Question `json:"questions" yaml:"questions" cbor:"3,keyasint" validate:"dive"`
}

// Question is a multiple-choice question. CorrectIndex points into Options.
type Question struct {
	Text         string   `json:"text" yaml:"text" cbor:"1,keyasint" validate:"required"`
	Options      []string `json:"options" yaml:"options" cbor:"2,keyasint" validate:"required,min=1"`
	CorrectIndex int      `json:"correct_index" yaml:"correct_index" cbor:"3,keyasint" validate:"min=0"`
}

// Empty reports whether the course has no chapters.
func (c Course) Empty() bool {
	return len(c.Chapters) == 0
}

// QuestionCount returns the total number of questions across all chapters.
func (c Course) QuestionCount() int {
	n := 0
	for _, ch := range c.Chapters {
		n += len(ch.Questions)
	}
	return n
}

// IsCorrect reports whether option is the correct answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectIndex
}
