package model

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInputIsValid(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))

	for range 50 {
		//** Arrange
		params := GeneratorParams{
			Classes:            rng.IntN(10),
			Subjects:           rng.IntN(10),
			Teachers:           rng.IntN(10),
			Days:               rng.IntN(6),
			PeriodsPerDay:      rng.IntN(8),
			MaxPeriods:         rng.IntN(10) + 1,
			SubjectsPerTeacher: rng.IntN(4),
			CurriculumRatio:    rng.Float64(),
		}

		//** Act
		input := GenerateInput(rng, params)
		domain, err := NewDomain(input, DefaultSettings())

		//** Assert
		require.NoError(t, err)
		assert.Len(t, domain.Classes, max(params.Classes, 1))
		assert.Len(t, domain.Subjects, max(params.Subjects, 1))
	}
}

func TestGenerateInputIsReproducible(t *testing.T) {
	first := GenerateInput(rand.New(rand.NewPCG(9, 9)), DefaultGeneratorParams())
	second := GenerateInput(rand.New(rand.NewPCG(9, 9)), DefaultGeneratorParams())
	assert.Equal(t, first, second)
}
