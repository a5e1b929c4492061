package domain

// Literals substituted for absent job post fields.
const (
	DefaultWorkingHours        = "Flexible"
	DefaultSalary              = "Negotiate"
	DefaultLocation            = "Location not specified"
	DefaultTasksTitle          = "Tasks to be Performed"
	DefaultQualificationsTitle = "Required Qualifications"
	DefaultCloseDate           = "Until filled"
)

type PlaceTag struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type DescriptionBlock struct {
	Title        string   `json:"title"`
	Descriptions []string `json:"descriptions"`
}

type JobDetails struct {
	WorkingHours *string `json:"workingHours"`
	Contract     bool    `json:"contract"`
	Salary       *string `json:"salary"`
	CloseDate    *string `json:"closeDate"`
}

type APIJobPost struct {
	ID                     string            `json:"id"`
	Title                  string            `json:"title"`
	PlaceTag               *PlaceTag         `json:"placeTag"`
	Tasks                  *DescriptionBlock `json:"tasks"`
	RequiredQualifications *DescriptionBlock `json:"requiredQualifications"`
	JobDetails             *JobDetails       `json:"jobDetails"`
}

// Job is the view-model shown on career cards and the job detail page.
type Job struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Category            string   `json:"category"`
	WorkingHours        string   `json:"workingHours"`
	Contract            string   `json:"contract"`
	Salary              string   `json:"salary"`
	CloseDate           string   `json:"closeDate"`
	TasksTitle          string   `json:"tasksTitle"`
	Tasks               []string `json:"tasks"`
	QualificationsTitle string   `json:"qualificationsTitle"`
	Qualifications      []string `json:"qualifications"`
}
