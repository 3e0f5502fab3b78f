package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawTeacher struct {
	Name     string   `json:"name" mapstructure:"name" validate:"required"`
	Subjects []string `json:"subjects" mapstructure:"subjects" validate:"dive,required"`
}

type RawSubject struct {
	Name    string `json:"name" mapstructure:"name" validate:"required"`
	Periods int    `json:"periods" mapstructure:"periods"`
}

type RawClass struct {
	Name     string   `json:"name" mapstructure:"name" validate:"required"`
	Subjects []string `json:"subjects" mapstructure:"subjects" validate:"dive,required"` // Empty means every subject
}

// RawInput is the data handed over by an input collector (file, form, API). Nothing about it is trusted until NewDomain validates it
type RawInput struct {
	Days          []string     `json:"days" mapstructure:"days"`
	PeriodsPerDay int          `json:"periodsPerDay" mapstructure:"periodsPerDay"`
	Teachers      []RawTeacher `json:"teachers" mapstructure:"teachers" validate:"dive"`
	Subjects      []RawSubject `json:"subjects" mapstructure:"subjects" validate:"dive"`
	Classes       []RawClass   `json:"classes" mapstructure:"classes" validate:"dive"`
}

func InputFromJson(file string) (RawInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return RawInput{}, fmt.Errorf("cannot read input file: %w", err)
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return RawInput{}, fmt.Errorf("cannot parse input file: %w", err)
	}
	return DecodeInput(inputJson)
}

// DecodeInput decodes a generic JSON object into a RawInput. Numbers arriving as float64 are accepted for integer fields
func DecodeInput(inputJson map[string]any) (RawInput, error) {
	var rawInput RawInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rawInput,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return RawInput{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return RawInput{}, fmt.Errorf("cannot decode input: %w", err)
	}
	return rawInput, nil
}

// normalize trims every identifier so that " Math" and "Math" name the same subject
func (rawInput RawInput) normalize() RawInput {
	trim := func(values []string) []string {
		return lo.Map(values, func(value string, _ int) string { return strings.TrimSpace(value) })
	}

	normalized := RawInput{
		Days:          trim(rawInput.Days),
		PeriodsPerDay: rawInput.PeriodsPerDay,
		Teachers: lo.Map(rawInput.Teachers, func(teacher RawTeacher, _ int) RawTeacher {
			return RawTeacher{Name: strings.TrimSpace(teacher.Name), Subjects: trim(teacher.Subjects)}
		}),
		Subjects: lo.Map(rawInput.Subjects, func(subject RawSubject, _ int) RawSubject {
			return RawSubject{Name: strings.TrimSpace(subject.Name), Periods: subject.Periods}
		}),
		Classes: lo.Map(rawInput.Classes, func(class RawClass, _ int) RawClass {
			return RawClass{Name: strings.TrimSpace(class.Name), Subjects: trim(class.Subjects)}
		}),
	}
	return normalized
}
