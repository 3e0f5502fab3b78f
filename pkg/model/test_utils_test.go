package model

// sampleInput is a small schedulable school: two days of three periods
func sampleInput() RawInput {
	return RawInput{
		Days:          []string{"Mon", "Tue"},
		PeriodsPerDay: 3,
		Teachers: []RawTeacher{
			{Name: "Bob", Subjects: []string{"Art"}},
			{Name: "Alice", Subjects: []string{"Physics", "Math"}},
		},
		Subjects: []RawSubject{
			{Name: "Math", Periods: 2},
			{Name: "Physics", Periods: 2},
			{Name: "Art", Periods: 1},
		},
		Classes: []RawClass{
			{Name: "10B", Subjects: []string{"Math", "Art"}},
			{Name: "10A"}, // Every subject
		},
	}
}
