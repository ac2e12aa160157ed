package documents

import "time"

// Document is one scanned or imported document owned by a user.
// Records are immutable once inserted.
type Document struct {
	ID        string
	UserID    string
	Title     string
	DocType   string
	ImageURL  string
	CreatedAt time.Time
}

// Categories lists the well-known document types. The set is open-ended;
// "All" disables type filtering.
var Categories = []string{"All", "Aadhar", "PAN", "License", "Academic", "Other"}
