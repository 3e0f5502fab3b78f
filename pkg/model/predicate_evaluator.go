package model

type predicateEvaluator interface {
	// Checks whether the teacher is competent to teach the subject
	Competent(teacher, subject int) bool

	// Checks whether the subject belongs to the class's curriculum
	Takes(class, subject int) bool

	// Returns the number of weekly periods the class must receive of the subject (zero when the class does not take it)
	Required(class, subject int) int

	// Checks whether the teacher may teach the subject to the class (i.e. a variable exists for the triple)
	Allowed(class, subject, teacher int) bool
}

type predicateEvaluatorStandard struct {
	domain     *Domain
	competency [][]bool // competency[teacher][subject]
	curriculum [][]bool // curriculum[class][subject]
}

func newPredicateEvaluator(domain *Domain) predicateEvaluator {
	evaluator := predicateEvaluatorStandard{
		domain:     domain,
		competency: make([][]bool, len(domain.Teachers)),
		curriculum: make([][]bool, len(domain.Classes)),
	}

	for teacher := range domain.Teachers {
		evaluator.competency[teacher] = make([]bool, len(domain.Subjects))
	}
	for subject := range domain.Subjects {
		for _, teacher := range domain.CompetentTeachers(subject) {
			evaluator.competency[teacher][subject] = true
		}
	}

	for class := range domain.Classes {
		evaluator.curriculum[class] = make([]bool, len(domain.Subjects))
		for _, subject := range domain.Curriculum(class) {
			evaluator.curriculum[class][subject] = true
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) Competent(teacher, subject int) bool {
	return evaluator.competency[teacher][subject]
}

func (evaluator *predicateEvaluatorStandard) Takes(class, subject int) bool {
	return evaluator.curriculum[class][subject]
}

func (evaluator *predicateEvaluatorStandard) Required(class, subject int) int {
	if !evaluator.Takes(class, subject) {
		return 0
	}
	return evaluator.domain.Subjects[subject].Periods
}

func (evaluator *predicateEvaluatorStandard) Allowed(class, subject, teacher int) bool {
	return evaluator.Takes(class, subject) && evaluator.Competent(teacher, subject)
}
