package mapper

import "bambite_gateway/internal/domain"

// JobApplicationFromFields renames the form's fields to the wire names:
// interest becomes joiningReason and pressure becomes additionalQuestion.
func JobApplicationFromFields(jobPostID string, f domain.ApplicationFields, file *domain.Attachment) domain.JobApplication {
	return domain.JobApplication{
		JobPostID:          jobPostID,
		Name:               f.Name,
		Email:              f.Email,
		JoiningReason:      f.Interest,
		AdditionalQuestion: f.Pressure,
		CoverLetter:        f.CoverLetter,
		UploadedFile:       file,
	}
}
