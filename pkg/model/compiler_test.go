package model

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/limaJavier/school-timetabling/pkg/search"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	//** Arrange
	domain, err := NewDomain(sampleInput(), DefaultSettings())
	require.NoError(t, err)

	//** Act
	compilation, err := Compile(domain)

	//** Assert
	require.NoError(t, err)
	problem := compilation.Problem
	assert.Equal(t, 30, problem.Variables)
	assert.Equal(t, []search.Family{FamilyCoverage, FamilyClass, FamilyTeacher}, problem.Families())

	byFamily := lo.GroupBy(problem.Constraints, func(constraint search.Constraint) search.Family { return constraint.Family })
	assert.Len(t, byFamily[FamilyCoverage], 5)
	assert.Len(t, byFamily[FamilyClass], 12)
	assert.Len(t, byFamily[FamilyTeacher], 12)

	coverage := problem.Constraints[1]
	assert.Equal(t, "10A/Math", coverage.Label)
	assert.Equal(t, search.Exactly, coverage.Kind)
	assert.Equal(t, 2, coverage.Bound)
	assert.Equal(t, []int{6, 7, 8, 9, 10, 11}, coverage.Variables)

	// Alice teaches Math to both classes and Physics to 10A
	aliceMonday := byFamily[FamilyTeacher][0]
	assert.Equal(t, "Alice@Mon#1", aliceMonday.Label)
	assert.Equal(t, search.AtMost, aliceMonday.Kind)
	assert.Len(t, aliceMonday.Variables, 3)

	for _, constraint := range problem.Constraints {
		for _, variable := range constraint.Variables {
			meaning := compilation.Variable(variable)
			teacher, _ := domain.TeacherIndex(meaning.Teacher)
			assert.True(t, domain.Teachers[teacher].Teaches(meaning.Subject), "variable %v is not competent", meaning)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for range 5 {
		//** Arrange
		domain, err := NewDomain(GenerateInput(rng, DefaultGeneratorParams()), DefaultSettings())
		require.NoError(t, err)

		//** Act
		first, err := Compile(domain)
		require.NoError(t, err)
		second, err := Compile(domain)
		require.NoError(t, err)

		//** Assert
		assert.Equal(t, first.Problem, second.Problem)
	}
}

func TestCompileRejectsUnteachableSubject(t *testing.T) {
	//** Arrange
	domain, err := NewDomain(sampleInput(), DefaultSettings())
	require.NoError(t, err)
	// Domains are only built through NewDomain; break one to exercise the compiler's own guard
	art, _ := domain.SubjectIndex("Art")
	domain.competentTeachers[art] = []int{}

	//** Act
	compilation, err := Compile(domain)

	//** Assert
	assert.Nil(t, compilation)
	assert.ErrorIs(t, err, ErrUnteachableSubject)
}

func TestCompiledSampleIsSolvable(t *testing.T) {
	//** Arrange
	domain, err := NewDomain(sampleInput(), DefaultSettings())
	require.NoError(t, err)
	compilation, err := Compile(domain)
	require.NoError(t, err)

	//** Act
	result, err := search.Solve(context.Background(), compilation.Problem, 5*time.Second)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, search.Solved, result.Status)
	// 10A needs 5 periods and 10B needs 3
	assert.Len(t, result.Assignment, 8)
}
