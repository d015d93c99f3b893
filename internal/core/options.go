package core

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary is the curated set of filter values offered to clients. It is
// fixed configuration, not derived from data: values absent from the
// vocabulary can still be filtered on but are never offered.
type Vocabulary struct {
	Regions        []string `yaml:"regions"`
	Genders        []string `yaml:"genders"`
	Categories     []string `yaml:"categories"`
	Tags           []string `yaml:"tags"`
	PaymentMethods []string `yaml:"paymentMethods"`
	AgeRange       AgeRange `yaml:"ageRange"` // fallback when no valid ages are loaded
}

// optionAge reads ages for the offered age range. Unlike the age filter,
// it also accepts records that only carry CustomerAge.
var optionAge = Field{Canonical: FieldAge.Canonical, Aliases: []string{"CustomerAge"}}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := parseVocabulary(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML vocabulary file. Lists missing from the file
// keep their built-in values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	v := DefaultVocabulary()
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if err := v.validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}

func parseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, err
	}
	return v, v.validate()
}

func (v Vocabulary) validate() error {
	if v.AgeRange.Min <= 0 || v.AgeRange.Max < v.AgeRange.Min {
		return fmt.Errorf("invalid age range %d-%d", v.AgeRange.Min, v.AgeRange.Max)
	}
	return nil
}

// DeriveFilterOptions returns the vocabulary lists plus the age range
// observed in records. Ages are read from Age, falling back to CustomerAge;
// non-positive and unparsable values are ignored. Without any valid age
// the vocabulary's default range is reported.
func DeriveFilterOptions(records []Record, v Vocabulary) FilterOptions {
	ages := v.AgeRange
	found := false
	for _, rec := range records {
		age := IntOrZero(rec.Get(optionAge))
		if age <= 0 {
			continue
		}
		if !found {
			ages = AgeRange{Min: age, Max: age}
			found = true
			continue
		}
		ages.Min = min(ages.Min, age)
		ages.Max = max(ages.Max, age)
	}

	return FilterOptions{
		Regions:        cloneList(v.Regions),
		Genders:        cloneList(v.Genders),
		Categories:     cloneList(v.Categories),
		Tags:           cloneList(v.Tags),
		PaymentMethods: cloneList(v.PaymentMethods),
		AgeRange:       ages,
	}
}

func cloneList(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
