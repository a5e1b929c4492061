package domain

import "strings"

type ContactReason string

const (
	ReasonGeneralInquiry  ContactReason = "general_inquiry"
	ReasonProductQuestion ContactReason = "product_question"
	ReasonCollaboration   ContactReason = "collaboration"
	ReasonFeedback        ContactReason = "feedback"
	ReasonOther           ContactReason = "other"
)

// ContactReasons lists the reasons in the order the contact form offers them.
var ContactReasons = []ContactReason{
	ReasonGeneralInquiry,
	ReasonProductQuestion,
	ReasonCollaboration,
	ReasonFeedback,
	ReasonOther,
}

var contactReasonLabels = map[ContactReason]string{
	ReasonGeneralInquiry:  "General Inquiry",
	ReasonProductQuestion: "Product Question",
	ReasonCollaboration:   "Collaboration",
	ReasonFeedback:        "Feedback",
	ReasonOther:           "Other",
}

func (r ContactReason) Label() string {
	return contactReasonLabels[r]
}

// ParseContactReason accepts either the wire token or the display label.
func ParseContactReason(s string) (ContactReason, bool) {
	s = strings.TrimSpace(s)
	for _, r := range ContactReasons {
		if strings.EqualFold(s, string(r)) || strings.EqualFold(s, contactReasonLabels[r]) {
			return r, true
		}
	}
	return "", false
}

type ContactSubmission struct {
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Reason  ContactReason `json:"reason"`
	Message string        `json:"message"`
}

type ContactReceipt struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ApplicationFields are the job application inputs as the form names them.
type ApplicationFields struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Interest    string `json:"interest"`
	Pressure    string `json:"pressure"`
	CoverLetter string `json:"coverLetter"`
}

// Attachment is a file picked by the user.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// JobApplication carries the wire names of the /apply-jobs multipart form.
type JobApplication struct {
	JobPostID          string
	Name               string
	Email              string
	JoiningReason      string
	AdditionalQuestion string
	CoverLetter        string
	UploadedFile       *Attachment
}

type ApplicationReceipt struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
