package model

import "fmt"

// Rating is the normalized content rating shared by every backend.
type Rating string

const (
	RatingGeneral  Rating = "General"
	RatingMature   Rating = "Mature"
	RatingExplicit Rating = "Explicit"
)

// SubmissionType is the normalized media kind of a submission.
type SubmissionType string

const (
	TypeImage SubmissionType = "image"
	TypeText  SubmissionType = "text"
	TypeFlash SubmissionType = "flash"
	TypeMusic SubmissionType = "music"
)

// VocabularyError reports a site-supplied rating or type string outside the
// backend's known vocabulary. Mappings fail closed: an unknown value is an
// error, never a silent default.
type VocabularyError struct {
	Kind  string
	Value string
}

func (e *VocabularyError) Error() string {
	return fmt.Sprintf("unknown %s value %q", e.Kind, e.Value)
}

// RatingVocabulary maps one site's rating strings onto the shared enum.
type RatingVocabulary map[string]Rating

func (v RatingVocabulary) Parse(value string) (Rating, error) {
	rating, ok := v[value]
	if !ok {
		return "", &VocabularyError{Kind: "rating", Value: value}
	}
	return rating, nil
}

// TypeVocabulary maps one site's submission-type strings onto the shared
// enum.
type TypeVocabulary map[string]SubmissionType

func (v TypeVocabulary) Parse(value string) (SubmissionType, error) {
	kind, ok := v[value]
	if !ok {
		return "", &VocabularyError{Kind: "submission type", Value: value}
	}
	return kind, nil
}
