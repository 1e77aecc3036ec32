package models

// AggregateStatistics are derived from a roster snapshot and never persisted.
// Absent values are nil and serialize as null.
type AggregateStatistics struct {
	MostParticipationGrade     *int       `json:"mostParticipationGrade"`
	AverageParticipationPoints *float64   `json:"averageParticipationPoints"`
	MostPopularEventKind       *EventKind `json:"mostPopularEventKind"`
}

// RosterRow is one line of the student statistics table.
type RosterRow struct {
	ID                      int64  `json:"id"`
	Name                    string `json:"name"`
	GradeLevel              int    `json:"gradeLevel"`
	ParticipationPoints     int    `json:"participationPoints"`
	DateOfLastParticipation *int64 `json:"dateOfLastParticipation"`
}
