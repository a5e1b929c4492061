package mapper

import (
	"strings"
	"time"

	"bambite_gateway/internal/domain"
)

const closeDateLayout = "2 Jan 2006"

var closeDateInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatCloseDate renders a close date as "18 Dec 2025" (UTC). Missing or
// unparsable input yields "Until filled".
func FormatCloseDate(raw *string) string {
	if raw == nil {
		return domain.DefaultCloseDate
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return domain.DefaultCloseDate
	}
	for _, layout := range closeDateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(closeDateLayout)
		}
	}
	return domain.DefaultCloseDate
}

func ContractLabel(contract bool) string {
	if contract {
		return "Yes"
	}
	return "No"
}

func JobFromAPI(j domain.APIJobPost) domain.Job {
	job := domain.Job{
		ID:             j.ID,
		Title:          j.Title,
		Category:       domain.DefaultLocation,
		WorkingHours:   domain.DefaultWorkingHours,
		Contract:       ContractLabel(false),
		Salary:         domain.DefaultSalary,
		CloseDate:      domain.DefaultCloseDate,
		Tasks:          []string{},
		Qualifications: []string{},

		TasksTitle:          domain.DefaultTasksTitle,
		QualificationsTitle: domain.DefaultQualificationsTitle,
	}

	if j.PlaceTag != nil && strings.TrimSpace(j.PlaceTag.Name) != "" {
		job.Category = j.PlaceTag.Name
	}
	if d := j.JobDetails; d != nil {
		job.WorkingHours = orDefault(d.WorkingHours, domain.DefaultWorkingHours)
		job.Contract = ContractLabel(d.Contract)
		job.Salary = orDefault(d.Salary, domain.DefaultSalary)
		job.CloseDate = FormatCloseDate(d.CloseDate)
	}
	if t := j.Tasks; t != nil {
		if strings.TrimSpace(t.Title) != "" {
			job.TasksTitle = t.Title
		}
		job.Tasks = nonEmpty(t.Descriptions)
	}
	if q := j.RequiredQualifications; q != nil {
		if strings.TrimSpace(q.Title) != "" {
			job.QualificationsTitle = q.Title
		}
		job.Qualifications = nonEmpty(q.Descriptions)
	}
	return job
}

func JobsFromAPI(posts []domain.APIJobPost) []domain.Job {
	jobs := make([]domain.Job, 0, len(posts))
	for _, p := range posts {
		jobs = append(jobs, JobFromAPI(p))
	}
	return jobs
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			out = append(out, it)
		}
	}
	return out
}
