package model

import "time"

// DeadlineType says whether a project has a hard deadline.
//
// INVARIANT: Deadline is nil whenever the type is "open". The service
// layer enforces this on every create and update — the mode always wins
// over any deadline value sent in the same request.
type DeadlineType string

const (
	DeadlineOpen  DeadlineType = "open"
	DeadlineFixed DeadlineType = "fixed"
)

// Category classifies a project on the dashboard.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryHelp     Category = "help"
)

// ScriptSection is one ordered section of a project's script outline.
//
// Sections have no identity of their own — their position in the parent
// Project's Script slice IS their identity. The Order field is advisory
// (the client sets it when appending); reordering just swaps slice
// elements and saves the whole document.
type ScriptSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// ProjectFile is the metadata record for one uploaded attachment.
// The bytes themselves live on disk under the project's upload directory;
// the document only carries this record.
type ProjectFile struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	FileName     string    `json:"fileName"` // disk-safe stored name, collision-resistant
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Project is the aggregate document: the project row plus its embedded
// script sections and file metadata. A save always writes the whole
// document in one statement, so concurrent updates are last-write-wins
// at the granularity of the fields each request sends.
//
// The JSON tag on Category is "type" — that's the field name the API
// and the frontend use; Category is just the clearer Go name.
type Project struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	StartDate         time.Time       `json:"startDate"`
	Deadline          *time.Time      `json:"deadline"`
	DeadlineType      DeadlineType    `json:"deadlineType"`
	Category          Category        `json:"type"`
	Script            []ScriptSection `json:"script"`
	Notes             string          `json:"notes"`
	Files             []ProjectFile   `json:"files"`
	CompletionPercent int             `json:"completionPercent"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ProjectSummary is the dashboard projection of a Project — everything
// the list view needs, nothing it doesn't (no script, notes, or files).
type ProjectSummary struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	StartDate         time.Time    `json:"startDate"`
	Deadline          *time.Time   `json:"deadline"`
	DeadlineType      DeadlineType `json:"deadlineType"`
	Category          Category     `json:"type"`
	CompletionPercent int          `json:"completionPercent"`
	CreatedAt         time.Time    `json:"createdAt"`
}
