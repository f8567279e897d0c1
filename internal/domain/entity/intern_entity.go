package entity

import "time"

// Status is the lifecycle state of an intern record.
type Status string

const (
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
	StatusExpelled  Status = "Expelled"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the four enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusExpelled, StatusCompleted:
		return true
	}
	return false
}

// Comment is a single immutable remark on an intern record. Comments are
// append-only: they are never edited or removed through the public contract.
type Comment struct {
	Text        string    `bson:"text" json:"text"`
	Author      string    `bson:"author" json:"author"`
	AuthorEmail string    `bson:"authorEmail" json:"authorEmail"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// Intern is the primary business entity tracked by the system.
// IDNumber is the unique identity and immutable after creation.
// Attachments is append-only across updates; ProfilePicture is replaced
// wholesale only when a new file is supplied.
type Intern struct {
	ID       string `bson:"_id,omitempty" json:"-"`
	IDNumber string `bson:"idNumber" json:"idNumber"`

	FullName              string    `bson:"fullName" json:"fullName"`
	Institution           string    `bson:"institution" json:"institution"`
	Department            string    `bson:"department" json:"department"`
	MonthJoined           string    `bson:"monthJoined" json:"monthJoined"`
	StartDate             time.Time `bson:"startDate" json:"startDate"`
	EndDate               time.Time `bson:"endDate" json:"endDate"`
	PhoneNumber           string    `bson:"phoneNumber" json:"phoneNumber"`
	AmountPaid            float64   `bson:"amountPaid" json:"amountPaid"`
	ReceiptNumber         string    `bson:"receiptNumber" json:"receiptNumber"`
	InstitutionSupervisor string    `bson:"institutionSupervisor" json:"institutionSupervisor"`

	Attachments    []string  `bson:"attachments" json:"attachments"`
	ProfilePicture string    `bson:"profilePicture" json:"profilePicture"`
	Comments       []Comment `bson:"comments" json:"comments"`
	Status         Status    `bson:"status" json:"status"`

	AddedByStaffEmail      string `bson:"addedByStaffEmail,omitempty" json:"addedByStaffEmail,omitempty"`
	UpdatedByStaffEmail    string `bson:"updatedByStaffEmail,omitempty" json:"updatedByStaffEmail,omitempty"`
	StatusChangedByHREmail string `bson:"statusChangedByHREmail,omitempty" json:"statusChangedByHREmail,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// InternProfile carries the required profile fields for create/update.
// File references and comments are handled separately by the merge policy.
type InternProfile struct {
	IDNumber              string
	FullName              string
	Institution           string
	Department            string
	MonthJoined           string
	StartDate             time.Time
	EndDate               time.Time
	PhoneNumber           string
	AmountPaid            float64
	ReceiptNumber         string
	InstitutionSupervisor string
}
