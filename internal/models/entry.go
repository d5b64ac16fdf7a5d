package models

// Medication is a single medication taken on the day of an entry.
type Medication struct {
	Name string `json:"name"`
	Dose string `json:"dose"`
}

// DietItem is a single food item eaten on the day of an entry.
type DietItem struct {
	Food   string `json:"food"`
	Amount string `json:"amount"`
}

// Entry represents one diary entry. The id, date, time and owner are assigned
// by the server at creation; the owner never changes afterwards.
type Entry struct {
	ID           int64        `json:"id"`
	PostedBy     string       `json:"postedBy"`
	Date         string       `json:"date"` // YYYY-MM-DD
	Time         string       `json:"time"` // HH:MM:SS
	Mood         int          `json:"mood"` // 0-7
	Sleep        int          `json:"sleep"`
	Irritability int          `json:"irritability"` // 0-3
	Medications  []Medication `json:"medications"`
	Diet         []DietItem   `json:"diet"`
	Exercise     string       `json:"exercise"`
	Notes        string       `json:"notes"`
}
