package registration

import "time"

// Individual is a single student's registration.
type Individual struct {
	ID          string    `json:"id"`
	StudentName string    `json:"studentName"`
	Grade       int       `json:"grade"`
	Category    string    `json:"category"`
	Style       string    `json:"style"`
	SchoolName  string    `json:"schoolName"`
	Taluk       string    `json:"taluk"`
	District    string    `json:"district"`
	ParentName  string    `json:"parentName"`
	ParentEmail string    `json:"parentEmail"`
	ParentPhone string    `json:"parentPhone"`
	CreatedAt   time.Time `json:"createdAt"`
}

// School is a bulk registration made by a school coordinator together with a participant sheet.
type School struct {
	ID          string    `json:"id"`
	OrgName     string    `json:"orgName"`
	CoordName   string    `json:"coordName"`
	CoordEmail  string    `json:"coordEmail"`
	CoordPhone  string    `json:"coordPhone"`
	Taluk       string    `json:"taluk"`
	District    string    `json:"district"`
	FileName    string    `json:"fileName"`
	FilePath    string    `json:"filePath"`
	DownloadURL string    `json:"downloadURL"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IndividualInput is the public submission payload. Anything else the client sends
// (category, id, createdAt) is dropped during binding.
type IndividualInput struct {
	StudentName string `json:"studentName" binding:"required,notblank"`
	Grade       *Grade `json:"grade" binding:"required"`
	Style       string `json:"style"`
	SchoolName  string `json:"schoolName" binding:"required,notblank"`
	Taluk       string `json:"taluk" binding:"required,notblank"`
	District    string `json:"district" binding:"required,notblank"`
	ParentName  string `json:"parentName" binding:"required,notblank"`
	ParentEmail string `json:"parentEmail" binding:"required,email"`
	ParentPhone string `json:"parentPhone" binding:"required,notblank"`
}

// SchoolInput holds the text fields of the multipart school submission.
type SchoolInput struct {
	OrgName    string `form:"orgName" json:"orgName" binding:"required,notblank"`
	CoordName  string `form:"coordName" json:"coordName" binding:"required,notblank"`
	CoordEmail string `form:"coordEmail" json:"coordEmail" binding:"required,email"`
	CoordPhone string `form:"coordPhone" json:"coordPhone" binding:"required,notblank"`
	Taluk      string `form:"taluk" json:"taluk" binding:"required,notblank"`
	District   string `form:"district" json:"district" binding:"required,notblank"`
}
