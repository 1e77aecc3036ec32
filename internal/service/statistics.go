package service

import "github.com/noah-isme/chapter-participation-api/internal/models"

// ComputeStatistics derives the aggregate statistics of a roster snapshot. It
// never fails: empty or all-zero input yields absent values.
func ComputeStatistics(students []models.Student) models.AggregateStatistics {
	var stats models.AggregateStatistics
	if len(students) == 0 {
		return stats
	}

	var (
		totalPoints int
		totalEvents int
		sporting    int
		nonSporting int
	)
	eventsByGrade := make(map[int]int)
	gradeOrder := make([]int, 0)

	for _, student := range students {
		if _, seen := eventsByGrade[student.GradeLevel]; !seen {
			gradeOrder = append(gradeOrder, student.GradeLevel)
		}
		eventsByGrade[student.GradeLevel] += len(student.ParticipationEvents)
		totalEvents += len(student.ParticipationEvents)

		for _, event := range student.ParticipationEvents {
			totalPoints += event.Points
			switch event.Kind {
			case models.EventKindSporting:
				sporting++
			case models.EventKindNonSporting:
				nonSporting++
			}
		}
	}

	average := float64(totalPoints) / float64(len(students))
	stats.AverageParticipationPoints = &average

	if totalEvents > 0 {
		// Strict comparison in first-seen order: ties keep the earlier grade.
		bestGrade, bestCount := gradeOrder[0], eventsByGrade[gradeOrder[0]]
		for _, grade := range gradeOrder[1:] {
			if eventsByGrade[grade] > bestCount {
				bestGrade, bestCount = grade, eventsByGrade[grade]
			}
		}
		stats.MostParticipationGrade = &bestGrade
	}

	if sporting > 0 || nonSporting > 0 {
		// Ties go to NonSporting.
		kind := models.EventKindNonSporting
		if sporting > nonSporting {
			kind = models.EventKindSporting
		}
		stats.MostPopularEventKind = &kind
	}

	return stats
}

// SummarizeRoster builds the per-student table rows in roster order.
func SummarizeRoster(students []models.Student) []models.RosterRow {
	rows := make([]models.RosterRow, 0, len(students))
	for _, student := range students {
		row := models.RosterRow{ID: student.ID, Name: student.Name, GradeLevel: student.GradeLevel}
		for _, event := range student.ParticipationEvents {
			row.ParticipationPoints += event.Points
			if row.DateOfLastParticipation == nil || event.Date > *row.DateOfLastParticipation {
				date := event.Date
				row.DateOfLastParticipation = &date
			}
		}
		rows = append(rows, row)
	}
	return rows
}
