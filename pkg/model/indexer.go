package model

import (
	"fmt"
	"slices"
	"sort"
)

// Space gives a unique index to every (class, subject, slot, teacher) combination a timetable may use and vice versa.
// Classes, subjects and teachers are domain indices; slot is the position in Domain.Slots
type Space interface {
	// Returns the index of a combination, or false when the combination is not materialized (subject outside the curriculum or incompetent teacher)
	Index(class, subject, slot, teacher int) (int, bool)
	// Returns the combination behind an index in [0, Variables()); panics on any other index
	Attributes(index int) (class, subject, slot, teacher int)
	// Returns the number of materialized combinations
	Variables() int
}

// block holds every variable of one (class, subject) pair: slot-major, then teacher
type block struct {
	class    int
	subject  int
	offset   int
	teachers []int // Competent teachers, by index
}

func (block block) size(slots int) int {
	return slots * len(block.teachers)
}

// indexerImplementation is a ragged mixed-radix numbering: class, curriculum subject, slot, competent teacher.
// The variables of a coverage constraint are therefore contiguous
type indexerImplementation struct {
	slots     int
	blocks    []block
	positions map[[2]int]int // (class, subject) -> block
	variables int
}

func newIndexer(domain *Domain) Space {
	indexer := &indexerImplementation{
		slots:     len(domain.Slots),
		blocks:    make([]block, 0),
		positions: make(map[[2]int]int),
	}

	for class := range domain.Classes {
		for _, subject := range domain.Curriculum(class) {
			current := block{
				class:    class,
				subject:  subject,
				offset:   indexer.variables,
				teachers: domain.CompetentTeachers(subject),
			}
			indexer.positions[[2]int{class, subject}] = len(indexer.blocks)
			indexer.blocks = append(indexer.blocks, current)
			indexer.variables += current.size(indexer.slots)
		}
	}
	return indexer
}

func (indexer *indexerImplementation) Index(class, subject, slot, teacher int) (int, bool) {
	position, ok := indexer.positions[[2]int{class, subject}]
	if !ok || slot < 0 || slot >= indexer.slots {
		return 0, false
	}
	current := indexer.blocks[position]
	teacherPosition, found := slices.BinarySearch(current.teachers, teacher)
	if !found {
		return 0, false
	}
	return current.offset + slot*len(current.teachers) + teacherPosition, true
}

func (indexer *indexerImplementation) Attributes(index int) (class, subject, slot, teacher int) {
	if index < 0 || index >= indexer.variables {
		panic(fmt.Sprintf("model: variable %v outside [0, %v)", index, indexer.variables))
	}

	// Last block starting at or before index
	position := sort.Search(len(indexer.blocks), func(i int) bool { return indexer.blocks[i].offset > index }) - 1
	current := indexer.blocks[position]

	local := index - current.offset
	slot = local / len(current.teachers)
	teacher = current.teachers[local%len(current.teachers)]
	return current.class, current.subject, slot, teacher
}

func (indexer *indexerImplementation) Variables() int {
	return indexer.variables
}
