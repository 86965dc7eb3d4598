package models

type Discipline struct {
	ID                int64
	TeacherID         int64
	Name              string
	GroupName         string
	RequiredPractices int
}

type KTPKind string

const (
	Lecture  KTPKind = "lecture"
	Practice KTPKind = "practice"
)

// KTPItem — пункт календарно-тематического плана: лекция или практика.
// PracticeNumber заполнен только для практик.
type KTPItem struct {
	ID             int64
	TeacherID      int64
	DisciplineID   int64
	GroupName      string
	Kind           KTPKind
	Description    string
	PracticeNumber *int
	Homework       *string
}

type StudentGroup struct {
	ID        int64
	TeacherID int64
	GroupName string
}
