package survey

import "sort"

// QuestionType is the type tag of a question
type QuestionType string

const (
	TypeText      QuestionType = "text"
	TypeTextarea  QuestionType = "textarea"
	TypeNumber    QuestionType = "number"
	TypeDate      QuestionType = "date"
	TypeEmail     QuestionType = "email"
	TypeChoice    QuestionType = "choice"
	TypeCheckbox  QuestionType = "checkbox"
	TypeDropdown  QuestionType = "dropdown"
	TypeLikert    QuestionType = "likert"
	TypeScale     QuestionType = "scale"
	TypeFile      QuestionType = "file"
	TypeSignature QuestionType = "signature"
	TypeSensitive QuestionType = "sensitive"
)

// Capabilities describes what a question type supports
type Capabilities struct {
	HasOptions     bool // Answers are picked from Options
	MultiSelect    bool // More than one option may be picked
	RepeatEligible bool // May appear inside a repeatable group
	Encrypted      bool // Answers must be stored encrypted
}

var capabilities = map[QuestionType]Capabilities{
	TypeText:      {RepeatEligible: true},
	TypeTextarea:  {RepeatEligible: true},
	TypeNumber:    {RepeatEligible: true},
	TypeDate:      {RepeatEligible: true},
	TypeEmail:     {RepeatEligible: true},
	TypeChoice:    {HasOptions: true, RepeatEligible: true},
	TypeCheckbox:  {HasOptions: true, MultiSelect: true, RepeatEligible: true},
	TypeDropdown:  {HasOptions: true, RepeatEligible: true},
	TypeLikert:    {HasOptions: true, RepeatEligible: true},
	TypeScale:     {HasOptions: true, RepeatEligible: true},
	TypeFile:      {RepeatEligible: true},
	TypeSignature: {Encrypted: true},
	TypeSensitive: {Encrypted: true, RepeatEligible: true},
}

// ParseQuestionType returns the type for a tag
func ParseQuestionType(tag string) (QuestionType, bool) {
	t := QuestionType(tag)
	_, ok := capabilities[t]
	return t, ok
}

// Capabilities returns the capability descriptor of the type.
// Unknown types report no capabilities.
func (t QuestionType) Capabilities() Capabilities {
	return capabilities[t]
}

// Valid reports whether t is a known type tag
func (t QuestionType) Valid() bool {
	_, ok := capabilities[t]
	return ok
}

// InferType returns the type a question gets when no tag is written.
// multi reports whether the options used the checkbox marker.
func InferType(hasOptions, multi bool) QuestionType {
	switch {
	case !hasOptions:
		return TypeText
	case multi:
		return TypeCheckbox
	default:
		return TypeChoice
	}
}

// QuestionTypes returns all known type tags in sorted order
func QuestionTypes() []QuestionType {
	types := make([]QuestionType, 0, len(capabilities))
	for t := range capabilities {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
